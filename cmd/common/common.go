package common

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	cerrors "cloudeng.io/errors"
	"github.com/Nrich-sunny/listingcrawler/collect"
	"github.com/Nrich-sunny/listingcrawler/config"
	"github.com/Nrich-sunny/listingcrawler/limiter"
	"github.com/Nrich-sunny/listingcrawler/log"
	"github.com/Nrich-sunny/listingcrawler/sqldb"
	"github.com/Nrich-sunny/listingcrawler/storage"
	"github.com/Nrich-sunny/listingcrawler/storage/csvstorage"
	"github.com/Nrich-sunny/listingcrawler/storage/pgstorage"
	"github.com/Nrich-sunny/listingcrawler/storage/sqlstorage"
	"github.com/Nrich-sunny/listingcrawler/version"
	"go.uber.org/zap"
)

// Env 子命令共用的运行环境
type Env struct {
	Config  config.Config
	Logger  *zap.Logger
	closers []io.Closer
}

// Setup 加载配置并初始化日志
func Setup(cfgPath string) (*Env, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	env := &Env{Config: cfg}
	plugin := log.NewStderrPlugin(level)
	if cfg.LogFile != "" {
		filePlugin, closer := log.NewFilePlugin(cfg.LogFile, level)
		plugin = log.NewTeePlugin(plugin, filePlugin)
		env.closers = append(env.closers, closer)
	}
	env.Logger = log.NewLogger(plugin)
	zap.ReplaceGlobals(env.Logger)
	env.Logger.Info("log init end",
		zap.String("version", version.GetVersion()),
		zap.String("config", cfgPath),
		zap.String("level", level.String()))
	return env, nil
}

// AddCloser 注册退出时需要关闭的资源，按注册的逆序关闭
func (e *Env) AddCloser(c io.Closer) {
	e.closers = append(e.closers, c)
}

func (e *Env) Close() error {
	var errs cerrors.M
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs.Append(e.closers[i].Close())
	}
	// stderr 上的 sync 可能返回 EINVAL，忽略
	_ = e.Logger.Sync()
	return errs.Err()
}

// SignalContext 收到 SIGINT 或 SIGTERM 时取消
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func NewFetcher(cfg config.Config, logger *zap.Logger) *collect.BrowserFetch {
	f := cfg.Fetcher
	lang := f.AcceptLanguage
	if lang == "" {
		lang = cfg.Site.AcceptLanguage
	}
	return collect.New(
		collect.WithTimeout(f.TimeoutDuration()),
		collect.WithMaxRetries(f.MaxRetries),
		collect.WithBaseDelay(f.BaseDelayDuration()),
		collect.WithUserAgent(f.UserAgent),
		collect.WithAcceptLanguage(lang),
		collect.WithLimiter(limiter.Build(f.DelayDuration(), f.Limits)),
		collect.WithLogger(logger.Named("fetcher")),
	)
}

// NewSink 按 storage.kind 打开记录存储
func NewSink(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.Sink, error) {
	logger = logger.Named("storage")
	switch cfg.Kind {
	case config.StorageCSV:
		return csvstorage.Open(cfg.Path, logger)
	case config.StorageMySQL:
		db, err := sqldb.New(
			sqldb.WithConnUrl(cfg.SqlUrl),
			sqldb.WithLogger(logger.Named("sqlDB")),
		)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		s, err := sqlstorage.New(ctx, db, cfg.Table, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		return s, nil
	case config.StoragePostgres:
		return pgstorage.Open(ctx, cfg.PgDSN, cfg.Table, logger)
	}
	return nil, fmt.Errorf("unknown storage kind %q", cfg.Kind)
}
