package sqlstorage

import (
	"context"
	"fmt"

	"github.com/Nrich-sunny/listingcrawler/sqldb"
	"github.com/Nrich-sunny/listingcrawler/storage"
	"go.uber.org/zap"
)

// SqlStore 把记录写入 MySQL，url 上建唯一索引，重复插入被忽略
type SqlStore struct {
	db     sqldb.DBer
	table  string
	logger *zap.Logger
}

var columns = []sqldb.Field{
	{Title: "url", Type: "VARCHAR(768) NOT NULL"},
	{Title: "payload", Type: "LONGTEXT NULL"},
	{Title: "fetched_at", Type: "DATETIME NULL"},
}

func New(ctx context.Context, db sqldb.DBer, table string, logger *zap.Logger) (*SqlStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SqlStore{db: db, table: table, logger: logger}
	err := db.CreateTable(ctx, sqldb.TableMetaData{
		TableName:   table,
		ColumnNames: columns,
		AutoKey:     true,
		UniqueKey:   "url",
	})
	if err != nil {
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}
	return s, nil
}

func (s *SqlStore) AlreadyProcessed(ctx context.Context) (map[string]struct{}, error) {
	urls, err := s.db.Column(ctx, s.table, "url")
	if err != nil {
		return nil, fmt.Errorf("load processed urls: %w", err)
	}
	done := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		done[u] = struct{}{}
	}
	return done, nil
}

func (s *SqlStore) Append(ctx context.Context, r storage.RawRecord) error {
	var payload interface{}
	if !r.Failed() {
		payload = string(r.Payload)
	}
	var fetched interface{}
	if !r.FetchedAt.IsZero() {
		fetched = r.FetchedAt.UTC()
	}
	err := s.db.Insert(ctx, sqldb.TableMetaData{
		TableName:   s.table,
		ColumnNames: columns,
		Args:        []interface{}{r.URL, payload, fetched},
		DataCount:   1,
		Ignore:      true,
	})
	if err != nil {
		return fmt.Errorf("insert record %s: %w", r.URL, err)
	}
	return nil
}

func (s *SqlStore) Close() error {
	return s.db.Close()
}
