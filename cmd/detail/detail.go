package detail

import (
	"github.com/Nrich-sunny/listingcrawler/checkpoint"
	"github.com/Nrich-sunny/listingcrawler/cmd/common"
	"github.com/Nrich-sunny/listingcrawler/engine"
	"github.com/Nrich-sunny/listingcrawler/process"
	"go.uber.org/zap"
)

// Run 处理去重后账本中尚未保存的详情页
func Run(cfgPath string) error {
	env, err := common.Setup(cfgPath)
	if err != nil {
		return err
	}
	defer env.Close()
	cfg, logger := env.Config, env.Logger

	ctx, stop := common.SignalContext()
	defer stop()

	sink, err := common.NewSink(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	env.AddCloser(sink)

	processor := process.New(
		process.WithFetcher(common.NewFetcher(cfg, logger)),
		process.WithScriptID(cfg.Site.PayloadScriptID),
		process.WithLookups(cfg.Site.PayloadLookups()...),
		process.WithLogger(logger.Named("process")),
	)
	crawler, err := engine.NewDetailCrawl(
		engine.WithLogger(logger.Named("detail")),
		engine.WithProcessor(processor),
		engine.WithSink(sink),
		engine.WithCheckpoints(checkpoint.NewFileStore(cfg.Detail.Checkpoint)),
		engine.WithLedger(cfg.Detail.Ledger),
		engine.WithReportEvery(cfg.Detail.ReportEvery),
		engine.WithNodeID(cfg.Detail.NodeID),
	)
	if err != nil {
		return err
	}

	state, err := crawler.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("detail crawl done",
		zap.Stringer("status", state.Status),
		zap.String("storage", cfg.Storage.Kind))
	return nil
}
