package shared

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artie-labs/dwmerge/lib/destination"
	"github.com/artie-labs/dwmerge/lib/schema"
	"github.com/artie-labs/dwmerge/lib/typing"
	"github.com/artie-labs/dwmerge/lib/upsert"
)

type testDialect struct{}

func (testDialect) QuoteIdentifier(identifier string) string {
	return fmt.Sprintf(`"%s"`, identifier)
}

func (testDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (testDialect) IsTableDoesNotExistErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "does not exist")
}

var (
	firstSeen   = time.Date(2025, time.January, 5, 10, 0, 0, 0, time.UTC)
	lastChanged = time.Date(2025, time.February, 5, 10, 0, 0, 0, time.UTC)
)

const (
	probeQuery  = `SELECT 1 FROM "dw"."DW_MOLO_SLIPS" WHERE 1 = 0`
	lookupQuery = `SELECT "id", "name", "length", "active", "DW_LAST_INSERTED", "DW_LAST_UPDATED" FROM "dw"."DW_MOLO_SLIPS" WHERE "id" = $1`
	insertQuery = `INSERT INTO "dw"."DW_MOLO_SLIPS" ("id", "name", "length", "active", "DW_LAST_INSERTED", "DW_LAST_UPDATED") VALUES ($1, $2, $3, $4, $5, $6)`
)

func slips(t *testing.T) *schema.Descriptor {
	desc, err := schema.NewDescriptor("molo", "slips", "DW_MOLO_SLIPS",
		[]schema.Column{
			{Name: "id", Kind: typing.Integer},
			{Name: "name", Kind: typing.Text},
			{Name: "length", Kind: typing.Decimal},
			{Name: "active", Kind: typing.Boolean},
		},
		schema.Key{Kind: schema.Surrogate, Columns: []string{"id"}},
		nil,
	)
	require.NoError(t, err)
	return desc
}

func newWarehouse(t *testing.T) (*Warehouse, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	return NewWarehouse(db, testDialect{}, Options{Schema: "dw"}, db.Close), mock
}

func lookupColumns() []string {
	return []string{"id", "name", "length", "active", "DW_LAST_INSERTED", "DW_LAST_UPDATED"}
}

func TestWarehouse_Table(t *testing.T) {
	wh, _ := newWarehouse(t)
	{
		table, err := wh.Table(slips(t))
		assert.NoError(t, err)
		assert.Equal(t, `"dw"."DW_MOLO_SLIPS"`, table.(*Table).TableIdentifier().FullyQualifiedName())
		assert.Equal(t, lookupQuery, table.(*Table).lookupQuery)
		assert.Equal(t, insertQuery, table.(*Table).insertQuery)
	}
	{
		// A source column cannot shadow an audit column
		desc, err := schema.NewDescriptor("molo", "slips", "DW_MOLO_SLIPS",
			[]schema.Column{{Name: "id", Kind: typing.Integer}, {Name: "dw_last_updated", Kind: typing.Timestamp}},
			schema.Key{Kind: schema.Surrogate, Columns: []string{"id"}},
			nil,
		)
		require.NoError(t, err)
		_, err = wh.Table(desc)
		assert.ErrorContains(t, err, `column "dw_last_updated" of "molo.slips" collides with an audit column`)
	}
}

func TestTx(t *testing.T) {
	ctx := context.Background()
	wh, mock := newWarehouse(t)
	table, err := wh.Table(slips(t))
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(probeQuery).WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery(lookupQuery).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(lookupColumns()).AddRow(int64(1), "A-1", []byte("42.50"), int64(1), firstSeen, lastChanged))
	mock.ExpectQuery(lookupQuery).WithArgs(int64(2)).WillReturnRows(sqlmock.NewRows(lookupColumns()))
	mock.ExpectExec(insertQuery).WithArgs(int64(2), "A-2", "30.0", false, firstSeen, firstSeen).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "dw"."DW_MOLO_SLIPS" SET "name" = $1, "active" = $2, "DW_LAST_UPDATED" = $3 WHERE "id" = $4`).
		WithArgs("A-1b", nil, lastChanged, int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := table.Begin(ctx)
	require.NoError(t, err)
	{
		// Found
		stored, found, err := tx.Lookup(ctx, []typing.Value{typing.NewInteger(1)})
		assert.NoError(t, err)
		assert.True(t, found)
		expected := schema.Row{typing.NewInteger(1), typing.NewText("A-1"), typing.MustDecimal("42.50"), typing.NewBoolean(true)}
		require.Len(t, stored.Row, len(expected))
		for i := range expected {
			assert.True(t, expected[i].Equal(stored.Row[i]), "column %d: %s", i, stored.Row[i])
		}
		assert.Equal(t, destination.AuditState{FirstSeenAt: firstSeen, LastChangedAt: lastChanged}, stored.Audit)
	}
	{
		// Not found
		_, found, err := tx.Lookup(ctx, []typing.Value{typing.NewInteger(2)})
		assert.NoError(t, err)
		assert.False(t, found)
	}
	{
		row := schema.Row{typing.NewInteger(2), typing.NewText("A-2"), typing.MustDecimal("30.0"), typing.NewBoolean(false)}
		assert.NoError(t, tx.Insert(ctx, row, destination.AuditState{FirstSeenAt: firstSeen, LastChangedAt: firstSeen}))
	}
	{
		row := schema.Row{typing.NewInteger(1), typing.NewText("A-1b"), typing.MustDecimal("42.50"), typing.NullOf(typing.Boolean)}
		assert.NoError(t, tx.Update(ctx, row, []string{"name", "active"}, lastChanged.In(time.FixedZone("EST", -5*60*60))))
		assert.ErrorContains(t, tx.Update(ctx, row, []string{"depth"}, lastChanged), `unknown column "depth"`)
	}
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTable_Begin(t *testing.T) {
	ctx := context.Background()
	{
		// Missing table
		wh, mock := newWarehouse(t)
		table, err := wh.Table(slips(t))
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectQuery(probeQuery).WillReturnError(errors.New(`relation "dw.DW_MOLO_SLIPS" does not exist`))
		mock.ExpectRollback()

		_, err = table.Begin(ctx)
		assert.True(t, destination.IsTableNotFoundError(err))
		assert.ErrorContains(t, err, `table "\"dw\".\"DW_MOLO_SLIPS\"" does not exist`)
		assert.NoError(t, mock.ExpectationsWereMet())
	}
	{
		// Begin fails
		wh, mock := newWarehouse(t)
		table, err := wh.Table(slips(t))
		require.NoError(t, err)

		mock.ExpectBegin().WillReturnError(errors.New("bad connection"))
		_, err = table.Begin(ctx)
		assert.ErrorContains(t, err, "failed to start tx: bad connection")
		assert.False(t, destination.IsTableNotFoundError(err))
	}
}

func TestTx_LookupErrors(t *testing.T) {
	ctx := context.Background()
	wh, mock := newWarehouse(t)
	table, err := wh.Table(slips(t))
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(probeQuery).WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery(lookupQuery).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(lookupColumns()).AddRow(int64(1), "A-1", "wide", true, nil, nil))
	mock.ExpectQuery(lookupQuery).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(lookupColumns()).AddRow(int64(1), "A-1", "1", true, nil, nil))
	mock.ExpectRollback()

	tx, err := table.Begin(ctx)
	require.NoError(t, err)
	{
		// Stored value that does not match the column kind
		_, _, err := tx.Lookup(ctx, []typing.Value{typing.NewInteger(1)})
		assert.ErrorContains(t, err, `failed to read stored column "length"`)
	}
	{
		// Null audit columns read as zero times
		stored, found, err := tx.Lookup(ctx, []typing.Value{typing.NewInteger(1)})
		assert.NoError(t, err)
		assert.True(t, found)
		assert.True(t, stored.Audit.FirstSeenAt.IsZero())
	}
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWarehouse_Merge(t *testing.T) {
	ctx := context.Background()
	wh, mock := newWarehouse(t)
	table, err := wh.Table(slips(t))
	require.NoError(t, err)

	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(probeQuery).WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery(lookupQuery).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(lookupColumns()).AddRow(int64(1), "A-1", "42.5", true, firstSeen, lastChanged))
	mock.ExpectQuery(lookupQuery).WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(lookupColumns()).AddRow(int64(2), "A-2", "10", false, firstSeen, lastChanged))
	mock.ExpectExec(`UPDATE "dw"."DW_MOLO_SLIPS" SET "length" = $1, "DW_LAST_UPDATED" = $2 WHERE "id" = $3`).
		WithArgs("11", now, int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(lookupQuery).WithArgs(int64(3)).WillReturnRows(sqlmock.NewRows(lookupColumns()))
	mock.ExpectExec(insertQuery).WithArgs(int64(3), "B-1", nil, true, now, now).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rows := func(yield func(schema.Row, error) bool) {
		for _, row := range []schema.Row{
			{typing.NewInteger(1), typing.NewText("A-1"), typing.MustDecimal("42.50"), typing.NewBoolean(true)},
			{typing.NewInteger(2), typing.NewText("A-2"), typing.MustDecimal("11"), typing.NewBoolean(false)},
			{typing.NewInteger(3), typing.NewText("B-1"), typing.NullOf(typing.Decimal), typing.NewBoolean(true)},
		} {
			if !yield(row, nil) {
				return
			}
		}
	}

	result, err := upsert.NewExecutor(upsert.WithClock(func() time.Time { return now })).Merge(ctx, table, rows)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Unchanged)
	assert.True(t, result.Committed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWarehouse_Close(t *testing.T) {
	wh, mock := newWarehouse(t)
	mock.ExpectClose()
	assert.NoError(t, wh.Close())
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.NoError(t, NewWarehouse(nil, testDialect{}, Options{}, nil).Close())
}
