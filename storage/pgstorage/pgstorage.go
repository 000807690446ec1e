package pgstorage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nrich-sunny/listingcrawler/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DB pgxpool.Pool 满足该接口
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgStore 把记录写入 PostgreSQL，payload 存为 JSONB
type PgStore struct {
	db     DB
	pool   *pgxpool.Pool
	table  string
	logger *zap.Logger
}

// Open 连接数据库并建表。table 可以带 schema，例如 crawl.records
func Open(ctx context.Context, dsn, table string, logger *zap.Logger) (*PgStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pg dsn: %w", err)
	}
	cfg.MaxConns = 2
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s, err := New(ctx, pool, table, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	s.pool = pool
	return s, nil
}

func New(ctx context.Context, db DB, table string, logger *zap.Logger) (*PgStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PgStore{db: db, table: quoteTable(table), logger: logger}
	if _, err := db.Exec(ctx, createTableSQL(s.table)); err != nil {
		return nil, fmt.Errorf("create table %s: %w", s.table, err)
	}
	return s, nil
}

func (s *PgStore) AlreadyProcessed(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.Query(ctx, `SELECT url FROM `+s.table)
	if err != nil {
		return nil, fmt.Errorf("load processed urls: %w", err)
	}
	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("load processed urls: %w", err)
	}
	done := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		done[u] = struct{}{}
	}
	return done, nil
}

func (s *PgStore) Append(ctx context.Context, r storage.RawRecord) error {
	var payload any
	if !r.Failed() {
		payload = string(r.Payload)
	}
	var fetched any
	if !r.FetchedAt.IsZero() {
		fetched = r.FetchedAt
	}
	tag, err := s.db.Exec(ctx, insertSQL(s.table), r.URL, payload, fetched)
	if err != nil {
		return fmt.Errorf("insert record %s: %w", r.URL, err)
	}
	if tag.RowsAffected() == 0 {
		s.logger.Debug("record already stored", zap.String("url", r.URL))
	}
	return nil
}

func (s *PgStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func quoteTable(table string) string {
	return pgx.Identifier(strings.Split(table, ".")).Sanitize()
}

func createTableSQL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
	url TEXT PRIMARY KEY,
	payload JSONB NULL,
	fetched_at TIMESTAMPTZ NULL
)`
}

func insertSQL(table string) string {
	return `INSERT INTO ` + table + ` (url, payload, fetched_at)
	VALUES ($1, $2::jsonb, $3)
	ON CONFLICT (url) DO NOTHING`
}
