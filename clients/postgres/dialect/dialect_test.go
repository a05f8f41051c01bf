package dialect

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/artie-labs/dwmerge/lib/sql"
)

func TestPostgresDialect_QuoteIdentifier(t *testing.T) {
	dialect := PostgresDialect{}
	assert.Equal(t, `"foo"`, dialect.QuoteIdentifier("foo"))
	assert.Equal(t, `"FOO"`, dialect.QuoteIdentifier("FOO"))
	assert.Equal(t, `"abc""def"`, dialect.QuoteIdentifier(`abc"def`))
}

func TestPostgresDialect_Placeholder(t *testing.T) {
	assert.Equal(t, "$1", PostgresDialect{}.Placeholder(1))
	assert.Equal(t, "$12", PostgresDialect{}.Placeholder(12))
}

func TestPostgresDialect_IsTableDoesNotExistErr(t *testing.T) {
	dialect := PostgresDialect{}
	assert.False(t, dialect.IsTableDoesNotExistErr(nil))
	assert.False(t, dialect.IsTableDoesNotExistErr(errors.New("relation does not exist")))
	assert.False(t, dialect.IsTableDoesNotExistErr(&pgconn.PgError{Code: "23505"}))
	assert.True(t, dialect.IsTableDoesNotExistErr(&pgconn.PgError{Code: "42P01"}))
	assert.True(t, dialect.IsTableDoesNotExistErr(fmt.Errorf("lookup: %w", &pgconn.PgError{Code: "42P01"})))
}

func TestPostgresDialect_Queries(t *testing.T) {
	dialect := PostgresDialect{}
	tableID := sql.NewTableIdentifier(dialect, "public", "DW_MOLO_BOATS")
	assert.Equal(t, `UPDATE "public"."DW_MOLO_BOATS" SET "name" = $1 WHERE "id" = $2`, sql.BuildUpdateQuery(dialect, tableID, []string{"name"}, []string{"id"}))
}
