package schema

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/artie-labs/dwmerge/lib/typing"
)

const DefaultTablePrefix = "DW_"

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the ordered list of tables a run merges. Parents always precede the tables that reference them.
type Catalog struct {
	tables []*Descriptor
	byID   map[string]*Descriptor
}

func NewCatalog(tables []*Descriptor) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*Descriptor, len(tables))}
	for position, table := range tables {
		if _, ok := c.byID[table.ID()]; ok {
			return nil, fmt.Errorf("table %q is listed twice", table.ID())
		}

		for _, ref := range table.References() {
			refID := qualify(table.System(), ref)
			if refID == table.ID() {
				continue
			}

			if _, ok := c.byID[refID]; ok {
				continue
			}

			if slices.ContainsFunc(tables[position+1:], func(d *Descriptor) bool { return d.ID() == refID }) {
				return nil, fmt.Errorf("table %q references %q which is merged after it", table.ID(), refID)
			}

			return nil, fmt.Errorf("table %q references unknown table %q", table.ID(), refID)
		}

		c.byID[table.ID()] = table
		c.tables = append(c.tables, table)
	}

	return c, nil
}

// qualify turns a reference into a table ID. Unqualified references point into the same system.
func qualify(system, ref string) string {
	if strings.Contains(ref, ".") {
		return strings.ToLower(ref)
	}
	return system + "." + strings.ToLower(ref)
}

// Tables returns every descriptor in merge order.
func (c *Catalog) Tables() []*Descriptor {
	return slices.Clone(c.tables)
}

// Systems returns the source systems in the order they first appear.
func (c *Catalog) Systems() []string {
	var out []string
	for _, table := range c.tables {
		if !slices.Contains(out, table.System()) {
			out = append(out, table.System())
		}
	}
	return out
}

func (c *Catalog) TablesForSystem(system string) []*Descriptor {
	var out []*Descriptor
	for _, table := range c.tables {
		if table.System() == system {
			out = append(out, table)
		}
	}
	return out
}

func (c *Catalog) Table(system, name string) (*Descriptor, bool) {
	table, ok := c.byID[qualify(strings.ToLower(system), name)]
	return table, ok
}

func TargetName(prefix, system, name string) string {
	return strings.ToUpper(prefix + system + "_" + name)
}

type catalogFile struct {
	Systems []struct {
		Name   string `yaml:"name"`
		Tables []struct {
			Name       string   `yaml:"name"`
			Target     string   `yaml:"target,omitempty"`
			Key        Key      `yaml:"key"`
			References []string `yaml:"references,omitempty"`
			Columns    []struct {
				Name string `yaml:"name"`
				Type string `yaml:"type"`
			} `yaml:"columns"`
		} `yaml:"tables"`
	} `yaml:"systems"`
}

// ParseCatalog reads a YAML catalog. Targets that are not set explicitly are named `<prefix><SYSTEM>_<TABLE>`.
func ParseCatalog(data []byte, tablePrefix string) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	var tables []*Descriptor
	for _, system := range file.Systems {
		systemName := strings.ToLower(system.Name)
		for _, table := range system.Tables {
			columns := make([]Column, len(table.Columns))
			for i, column := range table.Columns {
				kind, err := typing.ParseKind(column.Type)
				if err != nil {
					return nil, fmt.Errorf("table %q column %q: %w", table.Name, column.Name, err)
				}
				columns[i] = Column{Name: column.Name, Kind: kind}
			}

			target := table.Target
			if target == "" {
				target = TargetName(tablePrefix, systemName, table.Name)
			}

			desc, err := NewDescriptor(systemName, strings.ToLower(table.Name), target, columns, table.Key, table.References)
			if err != nil {
				return nil, err
			}

			tables = append(tables, desc)
		}
	}

	if len(tables) == 0 {
		return nil, fmt.Errorf("catalog has no tables")
	}

	return NewCatalog(tables)
}

func LoadCatalog(path string, tablePrefix string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %q: %w", path, err)
	}

	return ParseCatalog(data, tablePrefix)
}

// DefaultCatalog returns the built-in MOLO and STELLAR catalog.
func DefaultCatalog(tablePrefix string) (*Catalog, error) {
	return ParseCatalog(defaultCatalog, tablePrefix)
}
