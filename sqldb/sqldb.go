package sqldb

/** 本模块是一个更加底层的模块，只进行数据的存储
**	使用了原生的 MySQL 语句来与数据库交互
 */

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// DBer 数据库的接口
type DBer interface {
	CreateTable(ctx context.Context, t TableMetaData) error
	Insert(ctx context.Context, t TableMetaData) error
	Column(ctx context.Context, table, column string) ([]string, error)
	Close() error
}

// Sqldb : DBer 的实现
type Sqldb struct {
	options
	db *sql.DB
}

func New(opts ...Option) (*Sqldb, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	d := &Sqldb{}
	d.options = options
	if err := d.OpenDB(); err != nil {
		return nil, err
	}
	return d, nil
}

// OpenDB 用于与数据库建立连接，需要从外部传入远程 MySQL 数据库的连接地址
func (d *Sqldb) OpenDB() error {
	db, err := sql.Open("mysql", d.sqlUrl)
	if err != nil {
		return err
	}
	// 爬取是串行的，不需要大连接池
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	if err = db.Ping(); err != nil {
		db.Close()
		return err
	}
	d.db = db
	return nil
}

type Field struct {
	Title string // 字段名
	Type  string // 字段属性(类型)
}

type TableMetaData struct {
	TableName   string
	ColumnNames []Field       // 标题字段
	Args        []interface{} // 要插入的数据
	DataCount   int           // 插入数据的数量
	AutoKey     bool          // 标识是否为表创建自增主键
	UniqueKey   string        // 唯一索引所在的字段
	Ignore      bool          // 唯一键冲突时忽略该行
}

// CreateTable 拼接 MySQL 语句， 执行数据库操作
func (d *Sqldb) CreateTable(ctx context.Context, t TableMetaData) error {
	sql, err := createTableSQL(t)
	if err != nil {
		return err
	}
	d.logger.Debug("create table", zap.String("sql", sql))
	_, err = d.db.ExecContext(ctx, sql)
	return err
}

func (d *Sqldb) Insert(ctx context.Context, t TableMetaData) error {
	sql, err := insertSQL(t)
	if err != nil {
		return err
	}
	d.logger.Debug("insert table", zap.String("sql", sql))
	_, err = d.db.ExecContext(ctx, sql, t.Args...)
	return err
}

// Column 读取某一列的全部取值
func (d *Sqldb) Column(ctx context.Context, table, column string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT "+column+" FROM "+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (d *Sqldb) Close() error {
	return d.db.Close()
}

func createTableSQL(t TableMetaData) (string, error) {
	if len(t.ColumnNames) == 0 {
		return "", errors.New("column can not be empty")
	}

	sql := `CREATE TABLE IF NOT EXISTS ` + t.TableName + " ("
	if t.AutoKey {
		sql += `id INT(12) NOT NULL PRIMARY KEY AUTO_INCREMENT,`
	}
	for _, t := range t.ColumnNames {
		sql += t.Title + ` ` + t.Type + `,`
	}
	if t.UniqueKey != "" {
		sql += `UNIQUE KEY uk_` + t.UniqueKey + ` (` + t.UniqueKey + `),`
	}
	sql = sql[:len(sql)-1] + `) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	return sql, nil
}

func insertSQL(t TableMetaData) (string, error) {
	if len(t.ColumnNames) == 0 {
		return "", errors.New("empty columns")
	}
	if t.DataCount <= 0 {
		return "", errors.New("no rows to insert")
	}

	sql := `INSERT INTO `
	if t.Ignore {
		sql = `INSERT IGNORE INTO `
	}
	sql += t.TableName + `(`
	for _, v := range t.ColumnNames {
		sql += v.Title + ","
	}
	sql = sql[:len(sql)-1] + `) VALUES `
	blank := ",(" + strings.Repeat(",?", len(t.ColumnNames))[1:] + ")"
	sql += strings.Repeat(blank, t.DataCount)[1:] + `;`
	return sql, nil
}
