package dialect

import (
	"errors"
	"fmt"
	"testing"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
)

func TestMSSQLDialect_QuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"DW_MOLO_SLIPS"`, MSSQLDialect{}.QuoteIdentifier("DW_MOLO_SLIPS"))
	assert.Equal(t, `"a""b"`, MSSQLDialect{}.QuoteIdentifier(`a"b`))
}

func TestMSSQLDialect_Placeholder(t *testing.T) {
	assert.Equal(t, "@p1", MSSQLDialect{}.Placeholder(1))
	assert.Equal(t, "@p7", MSSQLDialect{}.Placeholder(7))
}

func TestMSSQLDialect_IsTableDoesNotExistErr(t *testing.T) {
	dialect := MSSQLDialect{}
	assert.False(t, dialect.IsTableDoesNotExistErr(nil))
	assert.False(t, dialect.IsTableDoesNotExistErr(errors.New("Invalid object name 'DW_MOLO_SLIPS'.")))
	assert.False(t, dialect.IsTableDoesNotExistErr(mssql.Error{Number: 2627}))
	assert.True(t, dialect.IsTableDoesNotExistErr(mssql.Error{Number: 208, Message: "Invalid object name 'DW_MOLO_SLIPS'."}))
	assert.True(t, dialect.IsTableDoesNotExistErr(fmt.Errorf("insert: %w", mssql.Error{Number: 208})))
}

func TestSchema(t *testing.T) {
	assert.Equal(t, "dbo", Schema("public"))
	assert.Equal(t, "dbo", Schema("PUBLIC"))
	assert.Equal(t, "warehouse", Schema("warehouse"))
	assert.Equal(t, "", Schema(""))
}
