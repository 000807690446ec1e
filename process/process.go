package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Nrich-sunny/listingcrawler/collect"
	"github.com/Nrich-sunny/listingcrawler/payload"
	"github.com/Nrich-sunny/listingcrawler/storage"
	"go.uber.org/zap"
)

// Processor 抓取详情页并提取内嵌数据
type Processor struct {
	options
	locator *payload.Locator
}

func New(opts ...Option) *Processor {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.now == nil {
		o.now = time.Now
	}
	return &Processor{options: o, locator: payload.NewLocator(o.scriptID)}
}

// Process 只返回抓取错误。找不到数据块、JSON 解析失败或没有命中的查找规则时，
// 返回 Payload 为空的记录
func (p *Processor) Process(ctx context.Context, req *collect.Request) (storage.RawRecord, error) {
	rec := storage.RawRecord{URL: req.Url}
	body, err := p.fetcher.Get(ctx, req)
	if err != nil {
		return rec, err
	}
	rec.FetchedAt = p.now().UTC()
	rec.Payload = p.extract(req.Url, body)
	return rec, nil
}

func (p *Processor) extract(url string, body []byte) (out json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("payload extraction panicked", zap.String("url", url), zap.Any("panic", r))
			out = nil
		}
	}()

	raw, err := p.locator.Locate(body)
	if errors.Is(err, payload.ErrInvalid) {
		p.logger.Warn("structured data is not valid json", zap.String("url", url))
		return nil
	}
	if err != nil {
		p.logger.Warn("no structured data block", zap.String("url", url))
		return nil
	}
	found, name, ok := payload.Select(raw, p.lookups)
	if !ok {
		p.logger.Warn("no lookup matched", zap.String("url", url))
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, found); err != nil {
		p.logger.Warn("encode payload", zap.String("url", url), zap.Error(err))
		return nil
	}
	p.logger.Debug("payload extracted", zap.String("url", url), zap.String("lookup", name), zap.Int("bytes", buf.Len()))
	return json.RawMessage(buf.Bytes())
}
