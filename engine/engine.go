package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

// crawl 两个阶段共用的部分：run id、单元保护、汇总与收尾
type crawl struct {
	Options
	node *snowflake.Node
}

func newCrawl(opts []Option) (crawl, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	if options.Checkpoints == nil {
		return crawl{}, errors.New("engine: checkpoint store is required")
	}
	if options.LedgerPath == "" {
		return crawl{}, errors.New("engine: ledger path is required")
	}
	node, err := snowflake.NewNode(options.NodeID)
	if err != nil {
		return crawl{}, fmt.Errorf("engine: snowflake node: %w", err)
	}
	return crawl{Options: options, node: node}, nil
}

func (c *crawl) begin(phase Phase) (*CrawlState, *zap.Logger) {
	state := &CrawlState{
		Phase:  phase,
		RunID:  c.node.Generate().String(),
		Status: Running,
	}
	logger := c.Logger.With(zap.String("phase", string(phase)), zap.String("run_id", state.RunID))
	return state, logger
}

// runUnit 单元内的 panic 转换为 Fatal
func runUnit(fn func() Outcome) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = fatal(fmt.Errorf("unexpected panic: %v", r))
		}
	}()
	return fn()
}

// flush 失败退出前再写一次已确认的进度
func (c *crawl) flush(state *CrawlState, logger *zap.Logger) {
	if err := c.Checkpoints.Save(context.Background(), state.Checkpoint); err != nil {
		logger.Error("flush checkpoint failed", zap.Error(err))
	}
}

func (c *crawl) finish(state *CrawlState, logger *zap.Logger) (*CrawlState, error) {
	fields := append(summaryFields(state), zap.Stringer("status", state.Status))
	switch state.Status {
	case Failed:
		logger.Error("crawl failed", append(fields, zap.Error(state.Err))...)
		return state, state.Err
	case Interrupted:
		logger.Warn("crawl interrupted", fields...)
	default:
		logger.Info("crawl finished", fields...)
	}
	logger.Info("next run resumes after unit",
		zap.Int("lastCompletedUnit", state.Checkpoint.LastCompletedUnit),
		zap.Int("cumulativeCount", state.Checkpoint.CumulativeCount))
	return state, nil
}

func (c *crawl) report(state *CrawlState, logger *zap.Logger) {
	if c.ReportEvery > 0 && state.Processed > 0 && state.Processed%c.ReportEvery == 0 {
		logger.Info("progress", summaryFields(state)...)
	}
}

func summaryFields(state *CrawlState) []zap.Field {
	return []zap.Field{
		zap.Int("processed", state.Processed),
		zap.Int("total", state.Total),
		zap.Int("succeeded", state.Succeeded),
		zap.Int("null_payloads", state.NullPayloads),
		zap.Int("skipped", state.Skipped),
		zap.Int("failed", state.Failed),
		zap.Int("lastCompletedUnit", state.Checkpoint.LastCompletedUnit),
		zap.Int("cumulativeCount", state.Checkpoint.CumulativeCount),
	}
}

func logOutcome(logger *zap.Logger, unit int, url string, o Outcome) {
	switch o.Kind {
	case Skip:
		logger.Warn("unit skipped",
			zap.Int("unit", unit),
			zap.String("url", url),
			zap.Stringer("class", o.Class),
			zap.Error(o.Err))
	case Success:
		logger.Debug("unit done", zap.Int("unit", unit), zap.String("url", url), zap.Int("count", o.Count))
	}
}
