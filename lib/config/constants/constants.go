package constants

type WarehouseKind string

const (
	Postgres  WarehouseKind = "postgres"
	MSSQL     WarehouseKind = "mssql"
	MySQL     WarehouseKind = "mysql"
	Snowflake WarehouseKind = "snowflake"
	SQLite    WarehouseKind = "sqlite"
	// Memory keeps everything in process, handy for dry runs.
	Memory WarehouseKind = "memory"
)

var validWarehouses = []WarehouseKind{Postgres, MSSQL, MySQL, Snowflake, SQLite, Memory}

func IsValidWarehouse(kind WarehouseKind) bool {
	for _, valid := range validWarehouses {
		if kind == valid {
			return true
		}
	}
	return false
}

type SourceKind string

const (
	S3   SourceKind = "s3"
	File SourceKind = "file"
)

// SourceFormat is how a system's blob is laid out.
type SourceFormat string

const (
	// Dump is a text blob of INSERT statements, optionally gzipped.
	Dump SourceFormat = "dump"
	// CSV is a tar.gz archive holding one <table>.csv per table.
	CSV SourceFormat = "csv"
)

// ExporterKind is used for the Telemetry package
type ExporterKind string

const (
	Datadog ExporterKind = "datadog"
)
