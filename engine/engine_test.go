package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Nrich-sunny/listingcrawler/checkpoint"
	"github.com/Nrich-sunny/listingcrawler/collect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher 按 URL 返回固定的页面或错误
type fakeFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	errs   map[string]error
	calls  []string
	onGet  func(url string, n int) error
	panics map[string]bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string]string{}, errs: map[string]error{}, panics: map[string]bool{}}
}

func (f *fakeFetcher) Get(ctx context.Context, req *collect.Request) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.Url)
	n := len(f.calls)
	f.mu.Unlock()
	if f.onGet != nil {
		if err := f.onGet(req.Url, n); err != nil {
			return nil, err
		}
	}
	if f.panics[req.Url] {
		panic("boom")
	}
	if err, ok := f.errs[req.Url]; ok {
		return nil, err
	}
	body, ok := f.pages[req.Url]
	if !ok {
		return nil, &collect.FetchError{Kind: collect.KindHTTPStatus, StatusCode: 404, URL: req.Url}
	}
	return []byte(body), nil
}

func (f *fakeFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// guardedStore 检查进度单调不减
type guardedStore struct {
	checkpoint.Store
	t     *testing.T
	saves []checkpoint.Checkpoint
	fail  error
}

func (g *guardedStore) Save(ctx context.Context, cp checkpoint.Checkpoint) error {
	if g.fail != nil {
		return g.fail
	}
	if n := len(g.saves); n > 0 {
		assert.GreaterOrEqual(g.t, cp.LastCompletedUnit, g.saves[n-1].LastCompletedUnit)
	}
	g.saves = append(g.saves, cp)
	return g.Store.Save(ctx, cp)
}

func newGuardedStore(t *testing.T, path string) *guardedStore {
	return &guardedStore{Store: checkpoint.NewFileStore(path), t: t}
}

func loadCheckpoint(t *testing.T, path string) checkpoint.Checkpoint {
	cp, err := checkpoint.NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	return cp
}

func writeLines(t *testing.T, path string, lines ...string) {
	var b []byte
	for _, l := range lines {
		b = append(b, l...)
		b = append(b, '\n')
	}
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func testDir(t *testing.T) (ledgerPath, cpPath string) {
	dir := t.TempDir()
	return filepath.Join(dir, "urls.txt"), filepath.Join(dir, "checkpoint.json")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Class
	}{
		{nil, ClassNone},
		{&collect.FetchError{Kind: collect.KindRateLimited}, ClassRateLimited},
		{&collect.FetchError{Kind: collect.KindNetwork}, ClassTransientNetwork},
		{&collect.FetchError{Kind: collect.KindTimeout}, ClassTransientNetwork},
		{fmt.Errorf("wrapped: %w", &collect.FetchError{Kind: collect.KindHTTPStatus, StatusCode: 410}), ClassPermanentHTTPStatus},
		{ErrEmptyPage, ClassParseFailure},
		{&PersistenceError{Op: "x", Err: os.ErrPermission}, ClassPersistenceFailure},
		{fmt.Errorf("something else"), ClassFatal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.err), "%v", tt.err)
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "Interrupted", Interrupted.String())
	assert.Equal(t, "PersistenceFailure", ClassPersistenceFailure.String())
	assert.Equal(t, "Skip", Skip.String())
}

func TestRequiredOptions(t *testing.T) {
	_, err := NewListingCrawl()
	assert.Error(t, err)

	ledgerPath, cpPath := testDir(t)
	_, err = NewListingCrawl(
		WithCheckpoints(checkpoint.NewFileStore(cpPath)),
		WithLedger(ledgerPath),
		WithFetcher(newFakeFetcher()),
		WithExtractor(newTestExtractor(t)),
		WithSearchURL("/relative"),
		WithMaxPages(1),
	)
	assert.Error(t, err)

	_, err = NewDetailCrawl(WithCheckpoints(checkpoint.NewFileStore(cpPath)), WithLedger(ledgerPath))
	assert.Error(t, err)
}
