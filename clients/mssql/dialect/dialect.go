package dialect

import (
	"errors"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
)

// invalidObjectName is raised for a table that does not exist, or one the login cannot see.
const invalidObjectName = 208

type MSSQLDialect struct{}

func (MSSQLDialect) QuoteIdentifier(identifier string) string {
	return fmt.Sprintf(`"%s"`, strings.ReplaceAll(identifier, `"`, `""`))
}

func (MSSQLDialect) Placeholder(index int) string {
	return fmt.Sprintf("@p%d", index)
}

func (MSSQLDialect) IsTableDoesNotExistErr(err error) bool {
	var mssqlErr mssql.Error
	if errors.As(err, &mssqlErr) {
		return mssqlErr.Number == invalidObjectName
	}
	return false
}

// Schema maps the schema onto SQL Server, where the default is called `dbo` and `public` is a reserved keyword.
func Schema(schema string) string {
	if strings.ToLower(schema) == "public" {
		return "dbo"
	}
	return schema
}
