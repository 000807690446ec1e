package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nrich-sunny/listingcrawler/collect"
	"github.com/Nrich-sunny/listingcrawler/ledger"
	"go.uber.org/zap"
)

// DetailCrawl 逐个处理账本中尚未保存的 URL。
// 进度 lastCompletedUnit 是账本中连续已保存前缀的长度（从 1 开始计），
// cumulativeCount 是账本中已保存的 URL 数
type DetailCrawl struct {
	crawl
}

func NewDetailCrawl(opts ...Option) (*DetailCrawl, error) {
	c, err := newCrawl(opts)
	if err != nil {
		return nil, err
	}
	switch {
	case c.Processor == nil:
		return nil, errors.New("engine: processor is required")
	case c.Sink == nil:
		return nil, errors.New("engine: sink is required")
	}
	return &DetailCrawl{crawl: c}, nil
}

// detailRun 一次运行中的账本视图
type detailRun struct {
	urls      []string
	processed map[string]struct{}
	watermark int // 连续已保存前缀的长度
}

func (r *detailRun) done(i int) bool {
	_, ok := r.processed[r.urls[i]]
	return ok
}

func (r *detailRun) advance() {
	for r.watermark < len(r.urls) && r.done(r.watermark) {
		r.watermark++
	}
}

func (r *detailRun) count() int {
	n := 0
	for i := range r.urls {
		if r.done(i) {
			n++
		}
	}
	return n
}

func (c *DetailCrawl) Run(ctx context.Context) (*CrawlState, error) {
	state, logger := c.begin(PhaseDetail)

	run, err := c.prepare(ctx, state, logger)
	if err != nil {
		state.Status, state.Err = Failed, err
		return c.finish(state, logger)
	}

	for i, u := range run.urls {
		if run.done(i) {
			continue
		}
		if ctx.Err() != nil {
			state.Status = Interrupted
			break
		}
		req := &collect.Request{Url: u, Phase: string(PhaseDetail), Unit: i + 1}
		out := runUnit(func() Outcome {
			return c.item(ctx, state, run, req)
		})
		if out.Kind == Skip && cancelled(ctx, out.Err) {
			state.Status = Interrupted
			break
		}
		state.record(out)
		logOutcome(logger, req.Unit, u, out)
		if out.Kind == Fatal {
			c.flush(state, logger)
			state.Status, state.Err = Failed, out.Err
			break
		}
		c.report(state, logger)
	}
	if state.Status == Running {
		state.Status = Completed
	}
	return c.finish(state, logger)
}

// prepare 读取账本与已保存的 URL，得到本次的起点
func (c *DetailCrawl) prepare(ctx context.Context, state *CrawlState, logger *zap.Logger) (*detailRun, error) {
	cp, err := c.Checkpoints.Load(ctx)
	if err != nil {
		return nil, err
	}
	state.Checkpoint = cp

	urls, err := ledger.ReadAll(c.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	processed, err := c.Sink.AlreadyProcessed(ctx)
	if err != nil {
		return nil, err
	}

	run := &detailRun{urls: urls, processed: processed}
	run.advance()
	persisted := run.count()
	state.Total = len(urls) - persisted

	if run.watermark < cp.LastCompletedUnit {
		// 记录被人为删除或账本被替换，进度不回退
		logger.Warn("record store is behind checkpoint",
			zap.Int("lastCompletedUnit", cp.LastCompletedUnit),
			zap.Int("storedPrefix", run.watermark))
		run.watermark = cp.LastCompletedUnit
	}
	state.Checkpoint.LastCompletedUnit = run.watermark
	state.Checkpoint.CumulativeCount = persisted

	logger.Info("detail crawl started",
		zap.Int("ledger", len(urls)),
		zap.Int("alreadyProcessed", persisted),
		zap.Int("remaining", state.Total),
		zap.Int("lastCompletedUnit", cp.LastCompletedUnit))
	return run, nil
}

func (c *DetailCrawl) item(ctx context.Context, state *CrawlState, run *detailRun, req *collect.Request) Outcome {
	rec, err := c.Processor.Process(ctx, req)
	if err != nil {
		return skip(classify(err), err)
	}
	if err := c.Sink.Append(ctx, rec); err != nil {
		// 本次丢弃，下次运行时该 URL 仍未保存，会重新处理
		return skip(ClassPersistenceFailure, &PersistenceError{Op: "record store", Err: err})
	}
	run.processed[req.Url] = struct{}{}
	run.advance()

	next := state.Checkpoint
	next.LastCompletedUnit = run.watermark
	next.CumulativeCount++
	if err := c.Checkpoints.Save(ctx, next); err != nil {
		return fatal(&PersistenceError{Op: "checkpoint", Err: err})
	}
	state.Checkpoint = next
	return Outcome{Kind: Success, Count: 1, Null: rec.Failed()}
}
