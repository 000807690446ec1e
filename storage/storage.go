package storage

import (
	"context"
	"encoding/json"
	"time"
)

// RawRecord 一条详情页的抓取结果。Payload 为 nil 表示提取失败
type RawRecord struct {
	URL       string
	Payload   json.RawMessage
	FetchedAt time.Time
}

// Failed 提取失败的记录同样会被保存，下次运行不再重试
func (r RawRecord) Failed() bool {
	return len(r.Payload) == 0
}

// Sink 记录存储，以 url 为唯一键
type Sink interface {
	// AlreadyProcessed 读取全部已保存的 url
	AlreadyProcessed(ctx context.Context) (map[string]struct{}, error)
	// Append 写入一条记录，返回时记录已经落盘。url 已存在时不做任何事
	Append(ctx context.Context, r RawRecord) error
	Close() error
}
