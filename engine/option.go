package engine

import (
	"context"

	"github.com/Nrich-sunny/listingcrawler/checkpoint"
	"github.com/Nrich-sunny/listingcrawler/collect"
	"github.com/Nrich-sunny/listingcrawler/extract"
	"github.com/Nrich-sunny/listingcrawler/storage"
	"go.uber.org/zap"
)

// Processor 处理单个详情页，process.Processor 实现了该接口
type Processor interface {
	Process(ctx context.Context, req *collect.Request) (storage.RawRecord, error)
}

type Option func(opts *Options)

type Options struct {
	Logger      *zap.Logger
	Fetcher     collect.Fetcher
	Extractor   extract.Extractor
	Processor   Processor
	Sink        storage.Sink
	Checkpoints checkpoint.Store
	LedgerPath  string
	SearchURL   string
	MaxPages    int
	ReportEvery int   // 每处理多少个单元输出一次汇总
	NodeID      int64 // 生成 run id 的 snowflake 节点号
}

var defaultOptions = Options{
	Logger:      zap.NewNop(),
	ReportEvery: 10,
	NodeID:      1,
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

func WithFetcher(fetcher collect.Fetcher) Option {
	return func(opts *Options) {
		opts.Fetcher = fetcher
	}
}

func WithExtractor(e extract.Extractor) Option {
	return func(opts *Options) {
		opts.Extractor = e
	}
}

func WithProcessor(p Processor) Option {
	return func(opts *Options) {
		opts.Processor = p
	}
}

func WithSink(sink storage.Sink) Option {
	return func(opts *Options) {
		opts.Sink = sink
	}
}

func WithCheckpoints(store checkpoint.Store) Option {
	return func(opts *Options) {
		opts.Checkpoints = store
	}
}

// WithLedger 列表阶段写入、详情阶段读取的 URL 文件
func WithLedger(path string) Option {
	return func(opts *Options) {
		opts.LedgerPath = path
	}
}

func WithSearchURL(url string) Option {
	return func(opts *Options) {
		opts.SearchURL = url
	}
}

func WithMaxPages(n int) Option {
	return func(opts *Options) {
		opts.MaxPages = n
	}
}

func WithReportEvery(n int) Option {
	return func(opts *Options) {
		opts.ReportEvery = n
	}
}

func WithNodeID(id int64) Option {
	return func(opts *Options) {
		opts.NodeID = id
	}
}
