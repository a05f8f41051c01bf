package dialect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSQLiteDialect(t *testing.T) {
	dialect := SQLiteDialect{}
	assert.Equal(t, `"DW_MOLO_BOATS"`, dialect.QuoteIdentifier("DW_MOLO_BOATS"))
	assert.Equal(t, "?", dialect.Placeholder(1))
	assert.False(t, dialect.IsTableDoesNotExistErr(nil))
	assert.False(t, dialect.IsTableDoesNotExistErr(errors.New("UNIQUE constraint failed")))
	assert.True(t, dialect.IsTableDoesNotExistErr(errors.New("no such table: DW_MOLO_BOATS")))
}
