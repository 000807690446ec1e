package otomoto

import "github.com/Nrich-sunny/listingcrawler/parse"

// Site otomoto.pl 乘用车搜索结果
var Site = parse.Site{
	Name:            "otomoto",
	BaseURL:         "https://www.otomoto.pl",
	SearchURL:       "https://www.otomoto.pl/osobowe?search%5Border%5D=relevance_web",
	ListingMarker:   "/oferta/",
	Domain:          "otomoto.pl",
	MaxPages:        8000,
	AcceptLanguage:  "pl-PL,pl;q=0.9,en-US;q=0.8,en;q=0.7",
	PayloadScriptID: "__NEXT_DATA__",
	Containers: []string{
		`article[data-testid="listing-grid-item"]`,
		`.ooa-1xgq9ou`,
		`[data-testid="ad-card"]`,
		`.e1huvdhj0`,
		`article`,
	},
	Links: []string{
		`a[href*="/oferta/"]`,
		`a[href*="/osobowe/oferta/"]`,
		`a[data-testid="ad-title"]`,
		`a[href*="otomoto.pl"]`,
	},
	Lookups: []string{
		"props.pageProps.ad",
		"props.pageProps.data",
		"props.pageProps",
	},
}
