package config

import (
	"github.com/artie-labs/dwmerge/lib/changeset"
	"github.com/artie-labs/dwmerge/lib/config/constants"
	"github.com/artie-labs/dwmerge/lib/destination"
)

type Sentry struct {
	DSN string `yaml:"dsn"`
}

type Reporting struct {
	Sentry *Sentry `yaml:"sentry"`
}

type Postgres struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	DisableSSL bool   `yaml:"disableSSL"`
}

type MSSQL struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type MySQL struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type Snowflake struct {
	AccountID string `yaml:"account"`
	Username  string `yaml:"username"`
	// If pathToPrivateKey is specified, the password field will be ignored
	PathToPrivateKey string `yaml:"pathToPrivateKey,omitempty"`
	Password         string `yaml:"password,omitempty"`

	Warehouse   string `yaml:"warehouse"`
	Database    string `yaml:"database"`
	Role        string `yaml:"role"`
	Region      string `yaml:"region"`
	Host        string `yaml:"host"`
	Application string `yaml:"application"`

	AdditionalParameters map[string]string `yaml:"additionalParameters,omitempty"`
}

type SQLite struct {
	Path string `yaml:"path"`
}

type Warehouse struct {
	Kind constants.WarehouseKind `yaml:"kind"`
	// Schema the warehouse tables live in. Left empty the session default is used.
	Schema       string                   `yaml:"schema"`
	TablePrefix  string                   `yaml:"tablePrefix"`
	AuditColumns destination.AuditColumns `yaml:"auditColumns"`

	Postgres  *Postgres  `yaml:"postgres,omitempty"`
	MSSQL     *MSSQL     `yaml:"mssql,omitempty"`
	MySQL     *MySQL     `yaml:"mysql,omitempty"`
	Snowflake *Snowflake `yaml:"snowflake,omitempty"`
	SQLite    *SQLite    `yaml:"sqlite,omitempty"`
}

// S3Location is where one system's exports land. The newest .gz object under the prefix is used.
type S3Location struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

type S3Settings struct {
	AwsAccessKeyID     string `yaml:"awsAccessKeyID"`
	AwsSecretAccessKey string `yaml:"awsSecretAccessKey"`
	AwsRegion          string `yaml:"awsRegion"`
	// AwsRoleARN is assumed with the static keys above when set.
	AwsRoleARN string `yaml:"awsRoleARN,omitempty"`
	// Systems is keyed by source system name.
	Systems map[string]S3Location `yaml:"systems"`
}

type FileSettings struct {
	// Systems maps a source system name onto a local path.
	Systems map[string]string `yaml:"systems"`
}

type Source struct {
	Kind   constants.SourceKind   `yaml:"kind"`
	Format constants.SourceFormat `yaml:"format"`
	S3     *S3Settings            `yaml:"s3,omitempty"`
	File   *FileSettings          `yaml:"file,omitempty"`
}

type Redis struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	Database int    `yaml:"database"`
	// LockTTLSeconds bounds how long a crashed run can hold the lock.
	LockTTLSeconds int `yaml:"lockTTLSeconds"`
}

type WebhookSettings struct {
	Enabled    bool           `yaml:"enabled"`
	URL        string         `yaml:"url"`
	APIKey     string         `yaml:"apiKey"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

type Metrics struct {
	Provider constants.ExporterKind `yaml:"provider"`
	Settings map[string]any         `yaml:"settings,omitempty"`
}

type Config struct {
	Warehouse   Warehouse        `yaml:"warehouse"`
	Source      Source           `yaml:"source"`
	CatalogPath string           `yaml:"catalogPath,omitempty"`
	Comparison  changeset.Policy `yaml:"comparison"`

	Reporting Reporting `yaml:"reporting"`
	Telemetry struct {
		Metrics Metrics `yaml:"metrics"`
	} `yaml:"telemetry"`

	Redis           *Redis           `yaml:"redis,omitempty"`
	WebhookSettings *WebhookSettings `yaml:"webhookSettings,omitempty"`
}
