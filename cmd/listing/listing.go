package listing

import (
	"github.com/Nrich-sunny/listingcrawler/checkpoint"
	"github.com/Nrich-sunny/listingcrawler/cmd/common"
	"github.com/Nrich-sunny/listingcrawler/engine"
	"go.uber.org/zap"
)

// Run 抓取列表页，把详情页 URL 追加到账本
func Run(cfgPath string) error {
	env, err := common.Setup(cfgPath)
	if err != nil {
		return err
	}
	defer env.Close()
	cfg, logger := env.Config, env.Logger

	extractor, err := cfg.Site.Extractor(logger.Named("extract"))
	if err != nil {
		return err
	}
	crawler, err := engine.NewListingCrawl(
		engine.WithLogger(logger.Named("listing")),
		engine.WithFetcher(common.NewFetcher(cfg, logger)),
		engine.WithExtractor(extractor),
		engine.WithCheckpoints(checkpoint.NewFileStore(cfg.Listing.Checkpoint)),
		engine.WithLedger(cfg.Listing.Ledger),
		engine.WithSearchURL(cfg.Site.SearchURL),
		engine.WithMaxPages(cfg.Listing.MaxPages),
		engine.WithNodeID(cfg.Listing.NodeID),
	)
	if err != nil {
		return err
	}

	ctx, stop := common.SignalContext()
	defer stop()
	state, err := crawler.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("listing crawl done",
		zap.Stringer("status", state.Status),
		zap.String("ledger", cfg.Listing.Ledger))
	return nil
}
