package parse

import (
	"github.com/Nrich-sunny/listingcrawler/extract"
	"github.com/Nrich-sunny/listingcrawler/payload"
	"go.uber.org/zap"
)

// Site 一个目标网站的爬取配置：列表页如何翻页、详情链接如何识别、内嵌数据如何提取
type Site struct {
	Name            string   `json:"name"`
	BaseURL         string   `json:"base_url"`
	SearchURL       string   `json:"search_url"`
	ListingMarker   string   `json:"listing_marker"` // 详情页链接中必然出现的路径片段
	Domain          string   `json:"domain"`
	MaxPages        int      `json:"max_pages"`
	AcceptLanguage  string   `json:"accept_language"`
	PayloadScriptID string   `json:"payload_script_id"`
	Containers      []string `json:"containers"` // 按优先级排列的容器选择器
	Links           []string `json:"links"`      // 容器内按优先级排列的链接选择器
	Lookups         []string `json:"lookups"`    // 路径或 "js:" 开头的表达式
}

// Extractor 先扫描所有链接，找不到时退回到容器选择器
func (s Site) Extractor(logger *zap.Logger) (*extract.Chain, error) {
	strategies := []extract.Strategy{
		extract.LinkScan{Marker: s.ListingMarker, Domain: s.Domain},
	}
	if len(s.Containers) > 0 && len(s.Links) > 0 {
		strategies = append(strategies, extract.ContainerScan{Containers: s.Containers, Links: s.Links})
	}
	return extract.NewChain(s.BaseURL, logger, strategies...)
}

func (s Site) PayloadLookups() []payload.Lookup {
	return payload.ParseLookups(s.Lookups)
}
