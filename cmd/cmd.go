package cmd

import (
	"os"

	"github.com/Nrich-sunny/listingcrawler/cmd/dedupe"
	"github.com/Nrich-sunny/listingcrawler/cmd/detail"
	"github.com/Nrich-sunny/listingcrawler/cmd/listing"
	"github.com/Nrich-sunny/listingcrawler/version"
	"github.com/spf13/cobra"
)

var ConfigPath string

var listingCmd = &cobra.Command{
	Use:   "listing",
	Short: "crawl listing pages into the url ledger.",
	Long:  "crawl search result pages from the last completed page and append detail urls to the ledger.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listing.Run(ConfigPath)
	},
}

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "deduplicate the url ledger.",
	Long:  "rewrite the url ledger without repeated urls, keeping first occurrence order.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dedupe.Run(ConfigPath)
	},
}

var detailCmd = &cobra.Command{
	Use:   "detail",
	Short: "crawl detail pages into the record store.",
	Long:  "fetch every unprocessed url of the deduplicated ledger and store its embedded payload.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return detail.Run(ConfigPath)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version.",
	Long:  "print version.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		version.Printer()
	},
}

func Execute() {
	var rootCmd = &cobra.Command{
		Use:          "crawler",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&ConfigPath, "config", "config.toml", "path of the toml config file")
	rootCmd.AddCommand(listingCmd, dedupeCmd, detailCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
