package pgstorage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Nrich-sunny/listingcrawler/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	calls []execCall
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not used")
}

func TestQuoteTable(t *testing.T) {
	assert.Equal(t, `"records"`, quoteTable("records"))
	assert.Equal(t, `"crawl"."records"`, quoteTable("crawl.records"))
	assert.Equal(t, `"bad""name"`, quoteTable(`bad"name`))
}

func TestStatements(t *testing.T) {
	assert.Contains(t, createTableSQL(`"records"`), `CREATE TABLE IF NOT EXISTS "records"`)
	assert.Contains(t, createTableSQL(`"records"`), "url TEXT PRIMARY KEY")
	assert.Contains(t, insertSQL(`"records"`), "ON CONFLICT (url) DO NOTHING")
}

func TestAppendArgs(t *testing.T) {
	db := &fakeDB{}
	s, err := New(context.Background(), db, "records", nil)
	require.NoError(t, err)

	require.NoError(t, s.Append(context.Background(), storage.RawRecord{URL: "u1", Payload: json.RawMessage(`{"a":1}`)}))
	require.NoError(t, s.Append(context.Background(), storage.RawRecord{URL: "u2"}))

	require.Len(t, db.calls, 3)
	assert.Contains(t, db.calls[0].sql, "CREATE TABLE")
	assert.Equal(t, []any{"u1", `{"a":1}`, nil}, db.calls[1].args)
	assert.Equal(t, []any{"u2", nil, nil}, db.calls[2].args)
}
