package collect

import (
	"context"
	"net/http"
	"time"

	"github.com/Nrich-sunny/listingcrawler/limiter"
	"go.uber.org/zap"
)

type options struct {
	timeout        time.Duration
	maxRetries     int
	baseDelay      time.Duration
	userAgent      string
	acceptLanguage string
	limit          limiter.RateLimiter
	logger         *zap.Logger
	client         *http.Client
	sleep          func(ctx context.Context, d time.Duration) error
}

var defaultOptions = options{
	timeout:        30 * time.Second,
	maxRetries:     3,
	baseDelay:      5 * time.Second,
	acceptLanguage: "en-US,en;q=0.9",
	logger:         zap.NewNop(),
}

type Option func(opts *options)

func WithTimeout(timeout time.Duration) Option {
	return func(opts *options) {
		opts.timeout = timeout
	}
}

// WithMaxRetries 每个 URL 的最大尝试次数（含首次）
func WithMaxRetries(n int) Option {
	return func(opts *options) {
		opts.maxRetries = n
	}
}

func WithBaseDelay(d time.Duration) Option {
	return func(opts *options) {
		opts.baseDelay = d
	}
}

// WithUserAgent 为空时在构造时随机选一个，整个会话保持不变
func WithUserAgent(ua string) Option {
	return func(opts *options) {
		opts.userAgent = ua
	}
}

func WithAcceptLanguage(lang string) Option {
	return func(opts *options) {
		opts.acceptLanguage = lang
	}
}

func WithLimiter(l limiter.RateLimiter) Option {
	return func(opts *options) {
		opts.limit = l
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(opts *options) {
		opts.client = client
	}
}

// WithSleep 替换退避时的等待函数，测试用
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(opts *options) {
		opts.sleep = sleep
	}
}
