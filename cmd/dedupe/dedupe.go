package dedupe

import (
	"github.com/Nrich-sunny/listingcrawler/cmd/common"
	"github.com/Nrich-sunny/listingcrawler/ledger"
	"go.uber.org/zap"
)

// Run 对账本去重，输出到新文件。详情爬取前必须执行
func Run(cfgPath string) error {
	env, err := common.Setup(cfgPath)
	if err != nil {
		return err
	}
	defer env.Close()
	cfg, logger := env.Config, env.Logger

	st, err := ledger.Dedupe(cfg.Dedupe.Input, cfg.Dedupe.Output)
	if err != nil {
		logger.Error("dedupe failed", zap.Error(err))
		return err
	}
	logger.Info("dedupe done",
		zap.String("input", cfg.Dedupe.Input),
		zap.String("output", cfg.Dedupe.Output),
		zap.Int("read", st.Read),
		zap.Int("unique", st.Unique),
		zap.Int("removed", st.Removed))
	return nil
}
