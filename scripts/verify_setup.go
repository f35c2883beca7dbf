package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/RecoveryAshes/ModelHarvest/internal/browser"
	"github.com/RecoveryAshes/ModelHarvest/internal/core"
	"github.com/RecoveryAshes/ModelHarvest/internal/storage"
	"github.com/go-rod/rod/lib/launcher"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  ModelHarvest 环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	// 检查Go版本
	fmt.Printf("✅ Go版本: %s\n", runtime.Version())

	// 检查操作系统
	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	// 加载配置
	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	config, err := core.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("❌ 加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(); err != nil {
		fmt.Printf("❌ 配置验证失败: %v\n", err)
		allOK = false
	} else {
		fmt.Printf("✅ 配置有效 (模式=%s, 站点=%s)\n", config.Browser.Mode, config.Source.BaseURL)
	}

	// 检查Chrome
	fmt.Println()
	fmt.Println("检查浏览器...")
	if config.Browser.BinPath != "" {
		if _, err := os.Stat(config.Browser.BinPath); err == nil {
			fmt.Printf("✅ 使用配置的浏览器: %s\n", config.Browser.BinPath)
		} else {
			fmt.Printf("❌ 配置的浏览器不存在: %s\n", config.Browser.BinPath)
			allOK = false
		}
	} else if path, found := launcher.LookPath(); found {
		fmt.Printf("✅ 找到Chrome: %s\n", path)
	} else if config.Browser.Mode == core.ModeRod {
		fmt.Println("⚠️  未找到本地Chrome - 首次运行时go-rod会自动下载Chromium")
		fmt.Println("   也可以使用 --mode static 以纯HTTP方式采集(参数版本只能来自页面文本)")
	} else {
		fmt.Println("ℹ️  未找到本地Chrome,static模式不需要浏览器")
	}

	// 检查系统资源
	if status, err := browser.SampleResources(); err != nil {
		fmt.Printf("⚠️  无法获取系统资源: %v\n", err)
	} else {
		availableMB := status.AvailableMemory / (1024 * 1024)
		if config.Browser.MinFreeMemoryMB > 0 && availableMB < uint64(config.Browser.MinFreeMemoryMB) {
			fmt.Printf("❌ 可用内存不足: %d MB (至少需要 %d MB)\n", availableMB, config.Browser.MinFreeMemoryMB)
			allOK = false
		} else {
			fmt.Printf("✅ 可用内存: %d MB\n", availableMB)
		}
	}

	// 检查数据目录
	fmt.Println()
	fmt.Println("检查数据目录...")
	if err := checkDataDir(config.Harvest.DataDir); err != nil {
		fmt.Printf("❌ 数据目录不可写 [%s]: %v\n", config.Harvest.DataDir, err)
		allOK = false
	} else {
		fmt.Printf("✅ 数据目录可写: %s\n", config.Harvest.DataDir)
	}

	fmt.Println()
	fmt.Println("==============================================")
	if allOK {
		fmt.Println("✅ 环境验证通过!")
		fmt.Println()
		fmt.Println("下一步:")
		fmt.Println("  1. 运行 'go build -o modelharvest ./cmd/modelharvest' 构建项目")
		fmt.Println("  2. 运行 './modelharvest --help' 查看帮助")
		os.Exit(0)
	} else {
		fmt.Println("❌ 环境验证失败,请解决上述问题。")
		os.Exit(1)
	}
}

// checkDataDir 写入并删除一个探测文件
func checkDataDir(dir string) error {
	store, err := storage.NewFileStore(dir)
	if err != nil {
		return err
	}

	const probeKey = ".verify_setup.json"
	if err := store.Save(probeKey, map[string]string{"status": "ok"}); err != nil {
		return err
	}
	return os.Remove(store.Path(probeKey))
}
