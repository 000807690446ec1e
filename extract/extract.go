package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Extractor 从列表页中取出详情页 URL
type Extractor interface {
	Extract(doc []byte) ([]string, error)
}

// Strategy 一种提取方式，找不到时返回空
type Strategy interface {
	Name() string
	Find(doc *goquery.Document, base *url.URL) []string
}

// Chain 按优先级依次尝试各个 Strategy，返回第一个非空结果
type Chain struct {
	base       *url.URL
	strategies []Strategy
	logger     *zap.Logger
}

func NewChain(baseURL string, logger *zap.Logger, strategies ...Strategy) (*Chain, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q is not absolute", baseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{base: base, strategies: strategies, logger: logger}, nil
}

func (c *Chain) Extract(doc []byte) ([]string, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	for _, s := range c.strategies {
		if urls := s.Find(d, c.base); len(urls) > 0 {
			c.logger.Debug("extracted urls", zap.String("strategy", s.Name()), zap.Int("count", len(urls)))
			return urls, nil
		}
	}
	return nil, nil
}

// LinkScan 扫描所有 a[href]，保留包含 Marker 且属于 Domain 的链接
type LinkScan struct {
	Marker string
	Domain string
}

func (LinkScan) Name() string { return "link-scan" }

func (s LinkScan) Find(doc *goquery.Document, base *url.URL) []string {
	var urls []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		u, ok := resolve(base, href)
		if !ok || !s.sameSite(u) {
			return
		}
		abs := u.String()
		if !strings.Contains(abs, s.Marker) {
			return
		}
		urls = append(urls, abs)
	})
	return urls
}

func (s LinkScan) sameSite(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	domain := strings.ToLower(s.Domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// ContainerScan 先找到第一个有匹配的容器选择器，再在每个容器里依次尝试链接选择器
type ContainerScan struct {
	Containers []string
	Links      []string
}

func (ContainerScan) Name() string { return "container-scan" }

func (s ContainerScan) Find(doc *goquery.Document, base *url.URL) []string {
	var containers *goquery.Selection
	for _, sel := range s.Containers {
		if found := doc.Find(sel); found.Length() > 0 {
			containers = found
			break
		}
	}
	if containers == nil {
		return nil
	}

	var urls []string
	containers.Each(func(_ int, c *goquery.Selection) {
		for _, sel := range s.Links {
			href, ok := c.Find(sel).First().Attr("href")
			if !ok {
				continue
			}
			if u, ok := resolve(base, href); ok {
				urls = append(urls, u.String())
				return
			}
		}
	})
	return urls
}

func resolve(base *url.URL, href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return nil, false
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return nil, false
	}
	u, err := base.Parse(href)
	if err != nil || u.Host == "" {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}
