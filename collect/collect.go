package collect

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Nrich-sunny/listingcrawler/extensions"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type Fetcher interface {
	Get(ctx context.Context, req *Request) ([]byte, error)
}

// BrowserFetch 模拟浏览器访问，带重试与退避
type BrowserFetch struct {
	options
	client *http.Client
}

func New(opts ...Option) *BrowserFetch {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxRetries < 1 {
		o.maxRetries = 1
	}
	if o.userAgent == "" {
		o.userAgent = extensions.GenerateRandomUA()
	}
	if o.sleep == nil {
		o.sleep = sleepCtx
	}
	client := o.client
	if client == nil {
		// 复用连接，类似浏览器的 keep-alive 会话
		client = &http.Client{Timeout: o.timeout}
	}
	return &BrowserFetch{options: o, client: client}
}

// Get 抓取 URL 并返回 UTF-8 编码的正文。
// 429 按 baseDelay*attempt 线性退避，网络错误与超时按 baseDelay 固定等待，
// 其它非 2xx 状态码立即返回
func (b *BrowserFetch) Get(ctx context.Context, request *Request) ([]byte, error) {
	var last *FetchError
	for attempt := 1; attempt <= b.maxRetries; attempt++ {
		if b.limit != nil {
			if err := b.limit.Wait(ctx); err != nil {
				return nil, ctxErr(ctx, err)
			}
		}

		body, fe := b.once(ctx, request.Url)
		if fe == nil {
			return body, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fe.Attempts = attempt
		last = fe

		if !fe.Retryable() {
			b.logger.Warn("fetch failed",
				zap.String("request", request.String()),
				zap.Int("status", fe.StatusCode))
			return nil, fe
		}
		if attempt == b.maxRetries {
			break
		}

		wait := b.baseDelay
		if fe.Kind == KindRateLimited {
			wait = b.baseDelay * time.Duration(attempt)
		}
		b.logger.Info("retrying fetch",
			zap.String("request", request.String()),
			zap.Stringer("kind", fe.Kind),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait))
		if err := b.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	b.logger.Warn("fetch exhausted retries",
		zap.String("request", request.String()),
		zap.Error(last))
	return nil, last
}

func (b *BrowserFetch) once(ctx context.Context, url string) ([]byte, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindHTTPStatus, URL: url, Err: fmt.Errorf("get url failed:%w", err)}
	}
	req.Header.Set("User-Agent", b.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	if b.acceptLanguage != "" {
		req.Header.Set("Accept-Language", b.acceptLanguage)
	}
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, transportError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, statusError(url, resp.StatusCode)
	}

	bodyReader := bufio.NewReader(resp.Body)
	e := DetermineEncoding(bodyReader)
	utf8Reader := transform.NewReader(bodyReader, e.NewDecoder())
	body, err := io.ReadAll(utf8Reader)
	if err != nil {
		return nil, transportError(url, err)
	}
	return body, nil
}

func DetermineEncoding(r *bufio.Reader) encoding.Encoding {
	bytes, err := r.Peek(1024)
	if err != nil && len(bytes) == 0 {
		return unicode.UTF8
	}
	e, _, _ := charset.DetermineEncoding(bytes, "")
	return e
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// 限速器在 ctx 取消时可能返回自己的错误，这里统一成 ctx.Err()
func ctxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("rate limiter: %w", err)
}
