package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChain(t *testing.T) *Chain {
	c, err := NewChain("https://www.example.pl", nil,
		LinkScan{Marker: "/oferta/", Domain: "example.pl"},
		ContainerScan{
			Containers: []string{`[data-testid="ad-card"]`, "article"},
			Links:      []string{`a[data-testid="ad-title"]`, "a"},
		},
	)
	require.NoError(t, err)
	return c
}

func TestLinkScan(t *testing.T) {
	doc := `<html><body>
<a href="/osobowe/oferta/audi-a4-ID1.html">a</a>
<a href="https://www.example.pl/oferta/bmw-ID2.html">b</a>
<a href="https://m.example.pl/oferta/vw-ID3.html">c</a>
<a href="https://other.com/oferta/x.html">foreign</a>
<a href="/osobowe/">category</a>
<a href="javascript:void(0)">js</a>
</body></html>`
	urls, err := newTestChain(t).Extract([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.example.pl/osobowe/oferta/audi-a4-ID1.html",
		"https://www.example.pl/oferta/bmw-ID2.html",
		"https://m.example.pl/oferta/vw-ID3.html",
	}, urls)
}

func TestFallbackToContainers(t *testing.T) {
	// 链接里没有 /oferta/，第一种方式一无所获
	doc := `<html><body>
<nav><a href="/osobowe/">menu</a></nav>
<div data-testid="ad-card"><a href="/x">img</a><a data-testid="ad-title" href="/ad/1">title</a></div>
<div data-testid="ad-card"><a href="https://www.example.pl/ad/2">only</a></div>
<article><a href="/ad/3">ignored</a></article>
</body></html>`
	urls, err := newTestChain(t).Extract([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.example.pl/ad/1",
		"https://www.example.pl/ad/2",
	}, urls)
}

func TestContainerGenericFallback(t *testing.T) {
	doc := `<html><body>
<article><a href="/ad/7">seven</a></article>
<article><span>no link</span></article>
</body></html>`
	urls, err := newTestChain(t).Extract([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.example.pl/ad/7"}, urls)
}

func TestNothingFound(t *testing.T) {
	urls, err := newTestChain(t).Extract([]byte(`<html><body><p>empty</p></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestWithinPageDuplicatesKept(t *testing.T) {
	doc := `<a href="/oferta/1">x</a><a href="/oferta/1">y</a>`
	urls, err := newTestChain(t).Extract([]byte(doc))
	require.NoError(t, err)
	assert.Len(t, urls, 2)
}

func TestNewChainRejectsRelativeBase(t *testing.T) {
	_, err := NewChain("/relative", nil)
	assert.Error(t, err)
}
