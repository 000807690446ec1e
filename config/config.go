package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Nrich-sunny/listingcrawler/limiter"
	"github.com/Nrich-sunny/listingcrawler/log"
	"github.com/Nrich-sunny/listingcrawler/parse"
	"github.com/Nrich-sunny/listingcrawler/parse/otomoto"
	"github.com/go-micro/plugins/v4/config/encoder/toml"
	"go-micro.dev/v4/config"
	"go-micro.dev/v4/config/reader"
	"go-micro.dev/v4/config/reader/json"
	"go-micro.dev/v4/config/source"
	"go-micro.dev/v4/config/source/file"
)

type Config struct {
	LogLevel string        `json:"logLevel"`
	LogFile  string        `json:"logFile"` // 为空时只输出到 stderr
	Fetcher  FetcherConfig `json:"fetcher"`
	Site     parse.Site    `json:"site"`
	Listing  ListingConfig `json:"listing"`
	Dedupe   DedupeConfig  `json:"dedupe"`
	Detail   DetailConfig  `json:"detail"`
	Storage  StorageConfig `json:"storage"`
}

// FetcherConfig 时间单位都是毫秒
type FetcherConfig struct {
	Timeout        int              `json:"timeout"`
	MaxRetries     int              `json:"max_retries"`
	BaseDelay      int              `json:"base_delay"`
	Delay          int              `json:"delay"` // 两次请求之间的最小间隔
	UserAgent      string           `json:"user_agent"`
	AcceptLanguage string           `json:"accept_language"`
	Limits         []limiter.Config `json:"limits"`
}

func (f FetcherConfig) TimeoutDuration() time.Duration {
	return time.Duration(f.Timeout) * time.Millisecond
}

func (f FetcherConfig) BaseDelayDuration() time.Duration {
	return time.Duration(f.BaseDelay) * time.Millisecond
}

func (f FetcherConfig) DelayDuration() time.Duration {
	return time.Duration(f.Delay) * time.Millisecond
}

type ListingConfig struct {
	MaxPages   int    `json:"max_pages"`
	Ledger     string `json:"ledger"`
	Checkpoint string `json:"checkpoint"`
	NodeID     int64  `json:"node_id"`
}

type DedupeConfig struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

type DetailConfig struct {
	Ledger      string `json:"ledger"`
	Checkpoint  string `json:"checkpoint"`
	ReportEvery int    `json:"report_every"`
	NodeID      int64  `json:"node_id"`
}

const (
	StorageCSV      = "csv"
	StorageMySQL    = "mysql"
	StoragePostgres = "postgres"
)

type StorageConfig struct {
	Kind   string `json:"kind"`
	Path   string `json:"path"`   // csv
	SqlUrl string `json:"sqlUrl"` // mysql
	PgDSN  string `json:"pgDSN"`  // postgres
	Table  string `json:"table"`
}

// Default 不需要配置文件即可运行的默认值
func Default() Config {
	return Config{
		LogLevel: "INFO",
		Fetcher: FetcherConfig{
			Timeout:        30000,
			MaxRetries:     3,
			BaseDelay:      5000,
			AcceptLanguage: otomoto.Site.AcceptLanguage,
		},
		Site: otomoto.Site,
		Listing: ListingConfig{
			MaxPages:   otomoto.Site.MaxPages,
			Ledger:     "data/listing_urls.txt",
			Checkpoint: "data/listing_checkpoint.json",
			NodeID:     1,
		},
		Dedupe: DedupeConfig{
			Input:  "data/listing_urls.txt",
			Output: "data/listing_urls_unique.txt",
		},
		Detail: DetailConfig{
			Ledger:      "data/listing_urls_unique.txt",
			Checkpoint:  "data/detail_checkpoint.json",
			ReportEvery: 10,
			NodeID:      2,
		},
		Storage: StorageConfig{
			Kind:  StorageCSV,
			Path:  "data/records.csv",
			Table: "listing_records",
		},
	}
}

// Load 读取 TOML 配置并覆盖默认值。文件不存在时直接返回默认值
func Load(path string) (Config, error) {
	c := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return c, c.Validate()
	}

	enc := toml.NewEncoder()
	cfg, err := config.NewConfig(config.WithReader(json.NewReader(reader.WithEncoder(enc))))
	if err != nil {
		return c, err
	}
	defer cfg.Close()
	err = cfg.Load(file.NewSource(
		file.WithPath(path),
		source.WithEncoder(enc),
	))
	if err != nil {
		return c, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Scan(&c); err != nil {
		return c, fmt.Errorf("scan config %s: %w", path, err)
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Storage.Kind {
	case StorageCSV:
		if c.Storage.Path == "" {
			return errors.New("config: storage.path is required for csv")
		}
	case StorageMySQL:
		if c.Storage.SqlUrl == "" {
			return errors.New("config: storage.sqlUrl is required for mysql")
		}
	case StoragePostgres:
		if c.Storage.PgDSN == "" {
			return errors.New("config: storage.pgDSN is required for postgres")
		}
	default:
		return fmt.Errorf("config: unknown storage kind %q", c.Storage.Kind)
	}
	if c.Fetcher.MaxRetries < 1 {
		return errors.New("config: fetcher.max_retries must be at least 1")
	}
	if c.Dedupe.Input == c.Dedupe.Output {
		return errors.New("config: dedupe input and output must differ")
	}
	return nil
}
