package process

import (
	"time"

	"github.com/Nrich-sunny/listingcrawler/collect"
	"github.com/Nrich-sunny/listingcrawler/payload"
	"go.uber.org/zap"
)

type options struct {
	fetcher  collect.Fetcher
	scriptID string
	lookups  []payload.Lookup
	logger   *zap.Logger
	now      func() time.Time
}

var defaultOptions = options{
	scriptID: payload.DefaultScriptID,
	lookups: []payload.Lookup{
		payload.KeyPath("props.pageProps.ad"),
		payload.KeyPath("props.pageProps.data"),
		payload.KeyPath("props.pageProps"),
	},
	logger: zap.NewNop(),
}

type Option func(opts *options)

func WithFetcher(fetcher collect.Fetcher) Option {
	return func(opts *options) {
		opts.fetcher = fetcher
	}
}

func WithScriptID(id string) Option {
	return func(opts *options) {
		opts.scriptID = id
	}
}

// WithLookups 按顺序尝试，第一个非空的结果作为 payload
func WithLookups(lookups ...payload.Lookup) Option {
	return func(opts *options) {
		if len(lookups) > 0 {
			opts.lookups = lookups
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(opts *options) {
		opts.now = now
	}
}
