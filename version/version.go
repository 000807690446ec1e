package version

import (
	"fmt"
	"runtime"
)

// 编译时通过 -ldflags "-X github.com/Nrich-sunny/listingcrawler/version.Version=..." 注入
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTS   = "unknown"
)

func GetVersion() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s)", Version, GitCommit, BuildTS, runtime.Version())
}

func Printer() {
	fmt.Println("Version:         ", Version)
	fmt.Println("Git Commit:      ", GitCommit)
	fmt.Println("Build Time:      ", BuildTS)
	fmt.Println("Go Version:      ", runtime.Version())
	fmt.Println("OS/Arch:         ", runtime.GOOS+"/"+runtime.GOARCH)
}
