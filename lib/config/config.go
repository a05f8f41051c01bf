package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/artie-labs/dwmerge/lib/changeset"
	"github.com/artie-labs/dwmerge/lib/config/constants"
	"github.com/artie-labs/dwmerge/lib/schema"
)

const defaultLockTTLSeconds = 60 * 60

func readFileToConfig(pathToConfig string) (*Config, error) {
	bytes, err := os.ReadFile(pathToConfig)
	if err != nil {
		return nil, err
	}

	var config Config
	if err = yaml.Unmarshal(bytes, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Warehouse.TablePrefix == "" {
		c.Warehouse.TablePrefix = schema.DefaultTablePrefix
	}

	c.Warehouse.AuditColumns = c.Warehouse.AuditColumns.WithDefaults()

	if c.Source.Format == "" {
		c.Source.Format = constants.Dump
	}

	if c.Comparison == "" {
		c.Comparison = changeset.PolicySentinel
	}

	if c.Redis != nil && c.Redis.LockTTLSeconds == 0 {
		c.Redis.LockTTLSeconds = defaultLockTTLSeconds
	}
}

func empty(values ...string) bool {
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}

	if err := c.Warehouse.Validate(); err != nil {
		return fmt.Errorf("warehouse config is invalid: %w", err)
	}

	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source config is invalid: %w", err)
	}

	if _, err := changeset.ParsePolicy(string(c.Comparison)); err != nil {
		return err
	}

	if c.Redis != nil && c.Redis.Address == "" {
		return fmt.Errorf("redis address is empty")
	}

	if c.WebhookSettings != nil && c.WebhookSettings.Enabled && c.WebhookSettings.URL == "" {
		return fmt.Errorf("webhook url is empty")
	}

	return nil
}

func (w Warehouse) Validate() error {
	if !constants.IsValidWarehouse(w.Kind) {
		return fmt.Errorf("invalid warehouse kind: %q", w.Kind)
	}

	if w.AuditColumns.FirstSeen != "" && strings.EqualFold(w.AuditColumns.FirstSeen, w.AuditColumns.LastChanged) {
		return fmt.Errorf("audit columns must be distinct, both are %q", w.AuditColumns.FirstSeen)
	}

	switch w.Kind {
	case constants.Postgres:
		if w.Postgres == nil {
			return errors.New("postgres config is nil")
		}
		if empty(w.Postgres.Host, w.Postgres.Username, w.Postgres.Database) {
			return errors.New("one of postgres settings is empty (host, username, database)")
		}
		if w.Postgres.Port <= 0 {
			return fmt.Errorf("invalid postgres port: %d", w.Postgres.Port)
		}
	case constants.MSSQL:
		if w.MSSQL == nil {
			return errors.New("mssql config is nil")
		}
		if empty(w.MSSQL.Host, w.MSSQL.Username, w.MSSQL.Password, w.MSSQL.Database) {
			return errors.New("one of mssql settings is empty (host, username, password, database)")
		}
		if w.MSSQL.Port <= 0 {
			return fmt.Errorf("invalid mssql port: %d", w.MSSQL.Port)
		}
	case constants.MySQL:
		if w.MySQL == nil {
			return errors.New("mysql config is nil")
		}
		if empty(w.MySQL.Host, w.MySQL.Username, w.MySQL.Database) {
			return errors.New("one of mysql settings is empty (host, username, database)")
		}
		if w.MySQL.Port <= 0 {
			return fmt.Errorf("invalid mysql port: %d", w.MySQL.Port)
		}
	case constants.Snowflake:
		if w.Snowflake == nil {
			return errors.New("snowflake config is nil")
		}
		if empty(w.Snowflake.AccountID, w.Snowflake.Username, w.Snowflake.Warehouse, w.Snowflake.Database) {
			return errors.New("one of snowflake settings is empty (account, username, warehouse, database)")
		}
		if w.Snowflake.Password == "" && w.Snowflake.PathToPrivateKey == "" {
			return errors.New("snowflake needs either a password or a private key")
		}
	case constants.SQLite:
		if w.SQLite == nil || w.SQLite.Path == "" {
			return errors.New("sqlite path is empty")
		}
	}

	return nil
}

func (s Source) Validate() error {
	switch s.Format {
	case constants.Dump, constants.CSV:
	default:
		return fmt.Errorf("invalid source format: %q", s.Format)
	}

	switch s.Kind {
	case constants.S3:
		if s.S3 == nil {
			return errors.New("s3 config is nil")
		}
		if len(s.S3.Systems) == 0 {
			return errors.New("s3 config has no systems")
		}
		for system, location := range s.S3.Systems {
			if location.Bucket == "" {
				return fmt.Errorf("s3 bucket for system %q is empty", system)
			}
		}
	case constants.File:
		if s.File == nil || len(s.File.Systems) == 0 {
			return errors.New("file config has no systems")
		}
		for system, path := range s.File.Systems {
			if path == "" {
				return fmt.Errorf("file path for system %q is empty", system)
			}
		}
	default:
		return fmt.Errorf("invalid source kind: %q", s.Kind)
	}

	return nil
}

// Systems returns the source systems the config provides data for.
func (s Source) Systems() []string {
	var systems []string
	switch s.Kind {
	case constants.S3:
		if s.S3 != nil {
			for system := range s.S3.Systems {
				systems = append(systems, strings.ToLower(system))
			}
		}
	case constants.File:
		if s.File != nil {
			for system := range s.File.Systems {
				systems = append(systems, strings.ToLower(system))
			}
		}
	}
	return systems
}

// LoadCatalog returns the catalog file named by the config, or the embedded default.
func (c Config) LoadCatalog() (*schema.Catalog, error) {
	if c.CatalogPath == "" {
		return schema.DefaultCatalog(c.Warehouse.TablePrefix)
	}
	return schema.LoadCatalog(c.CatalogPath, c.Warehouse.TablePrefix)
}
