package main

import (
	"github.com/Nrich-sunny/listingcrawler/cmd"
)

func main() {
	cmd.Execute()
}
