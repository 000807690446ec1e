package sqldb

import "go.uber.org/zap"

type options struct {
	logger *zap.Logger
	sqlUrl string
}

var defaultOptions = options{
	logger: zap.NewNop(),
}

type Option func(opts *options)

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithConnUrl MySQL DSN，例如 root:123456@tcp(127.0.0.1:3306)/crawler?parseTime=true
func WithConnUrl(sqlUrl string) Option {
	return func(opts *options) {
		opts.sqlUrl = sqlUrl
	}
}
