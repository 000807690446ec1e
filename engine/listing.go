package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Nrich-sunny/listingcrawler/collect"
	"github.com/Nrich-sunny/listingcrawler/ledger"
	"go.uber.org/zap"
)

// ListingCrawl 按页抓取搜索结果，把详情页 URL 追加到账本，以页码为进度
type ListingCrawl struct {
	crawl
}

func NewListingCrawl(opts ...Option) (*ListingCrawl, error) {
	c, err := newCrawl(opts)
	if err != nil {
		return nil, err
	}
	switch {
	case c.Fetcher == nil:
		return nil, errors.New("engine: fetcher is required")
	case c.Extractor == nil:
		return nil, errors.New("engine: extractor is required")
	case c.MaxPages <= 0:
		return nil, errors.New("engine: max pages must be positive")
	}
	if _, err := PageURL(c.SearchURL, 1); err != nil {
		return nil, err
	}
	return &ListingCrawl{crawl: c}, nil
}

// PageURL 在搜索地址上设置 page 参数
func PageURL(search string, page int) (string, error) {
	u, err := url.Parse(search)
	if err != nil {
		return "", fmt.Errorf("parse search url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("search url %q is not absolute", search)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run 从上次完成的页之后开始，直到 MaxPages。只有返回 Failed 时 error 非空
func (c *ListingCrawl) Run(ctx context.Context) (*CrawlState, error) {
	state, logger := c.begin(PhaseListing)

	cp, err := c.Checkpoints.Load(ctx)
	if err != nil {
		state.Status, state.Err = Failed, err
		return c.finish(state, logger)
	}
	state.Checkpoint = cp
	if cp.LastCompletedUnit >= c.MaxPages {
		logger.Info("listing already complete", zap.Int("maxPages", c.MaxPages))
		state.Status = Completed
		return c.finish(state, logger)
	}
	state.Total = c.MaxPages - cp.LastCompletedUnit

	// 从第 0 页开始视为全新运行，清空账本
	fresh := cp.LastCompletedUnit == 0
	led, err := ledger.Open(c.LedgerPath, fresh)
	if err != nil {
		state.Status, state.Err = Failed, err
		return c.finish(state, logger)
	}
	defer led.Close()
	if led.Dropped > 0 {
		logger.Warn("dropped partial trailing ledger line", zap.Int64("bytes", led.Dropped))
	}
	logger.Info("listing crawl started",
		zap.Int("fromPage", cp.LastCompletedUnit+1),
		zap.Int("maxPages", c.MaxPages),
		zap.Bool("fresh", fresh),
		zap.String("ledger", c.LedgerPath))

	for page := cp.LastCompletedUnit + 1; page <= c.MaxPages; page++ {
		if ctx.Err() != nil {
			state.Status = Interrupted
			break
		}
		pageURL, _ := PageURL(c.SearchURL, page)
		out := runUnit(func() Outcome {
			return c.page(ctx, state, led, &collect.Request{Url: pageURL, Phase: string(PhaseListing), Unit: page})
		})
		if out.Kind == Skip && cancelled(ctx, out.Err) {
			state.Status = Interrupted
			break
		}
		state.record(out)
		logOutcome(logger, page, pageURL, out)
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

func (c *ListingCrawl) page(ctx context.Context, state *CrawlState, led *ledger.Ledger, req *collect.Request) Outcome {
	body, err := c.Fetcher.Get(ctx, req)
	if err != nil {
		return skip(classify(err), err)
	}
	urls, err := c.Extractor.Extract(body)
	if err != nil {
		return skip(ClassParseFailure, fmt.Errorf("%w: %v", ErrParse, err))
	}
	if len(urls) == 0 {
		return skip(ClassParseFailure, ErrEmptyPage)
	}
	if err := led.Append(urls); err != nil {
		return fatal(&PersistenceError{Op: "ledger", Err: err})
	}

	next := state.Checkpoint
	next.LastCompletedUnit = req.Unit
	next.CumulativeCount += len(urls)
	if err := c.Checkpoints.Save(ctx, next); err != nil {
		return fatal(&PersistenceError{Op: "checkpoint", Err: err})
	}
	state.Checkpoint = next
	return success(len(urls))
}
