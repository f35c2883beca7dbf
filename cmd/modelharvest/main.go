package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RecoveryAshes/ModelHarvest/internal/core"
	"github.com/RecoveryAshes/ModelHarvest/internal/harvest"
	"github.com/RecoveryAshes/ModelHarvest/internal/models"
	"github.com/RecoveryAshes/ModelHarvest/internal/storage"
	"github.com/RecoveryAshes/ModelHarvest/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	dataDir  string
	mode     string
	headless bool
	headers  []string // 自定义HTTP请求头
)

// appConfig 在PersistentPreRunE中加载
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "modelharvest",
	Short: "Ollama模型库目录采集工具",
	Long: `ModelHarvest - Ollama模型库目录采集工具

按热度顺序采集ollama.com模型库中的所有模型,记录描述、下载量、
更新时间和各参数版本的磁盘大小:
  • list     更新基础模型列表
  • details  获取当日详情(可断点续采)并合并进综合目录
  • merge    只把当日快照合并进综合目录
  • all      依次执行以上全部步骤(默认)

数据文件默认保存在 public/data 目录下。

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		if err := ValidateFlags(mode, logLevel, headers); err != nil {
			return err
		}

		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 命令行参数覆盖配置文件
		overrides := core.CLIOverrides{
			DataDir:  dataDir,
			Mode:     mode,
			LogLevel: logLevel,
			Headers:  headers,
		}
		if cmd.Flags().Changed("headless") {
			overrides.Headless = &headless
		}
		if verbose && logLevel == "" {
			overrides.LogLevel = "debug"
		}
		if err := config.MergeCLIFlags(overrides); err != nil {
			return fmt.Errorf("解析命令行参数失败: %w", err)
		}

		if err := config.Validate(); err != nil {
			return fmt.Errorf("配置验证失败: %w", err)
		}

		// 初始化日志系统
		if err := utils.InitLogger(config.LogConfig()); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
			safe := core.RedactHeaders(core.MergeHeaders(config.Browser.UserAgent, config.Browser.Headers))
			utils.Debugf("浏览模式: %s, 数据目录: %s, 请求头: %v", config.Browser.Mode, config.Harvest.DataDir, safe)
		}

		appConfig = config
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, "all", func(ctx context.Context, p *harvest.Pipeline) error {
			return p.RunAll(ctx)
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "更新基础模型列表",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, "list", func(ctx context.Context, p *harvest.Pipeline) error {
			_, err := p.RunList(ctx)
			return err
		})
	},
}

var detailsCmd = &cobra.Command{
	Use:   "details",
	Short: "获取当日模型详情并合并进综合目录",
	Long: `按基础模型列表逐个获取详情页信息。

每成功一个模型就会写入当日快照,中断后再次运行会跳过快照中已有的模型。
全部处理完成后自动合并进综合目录。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, "details", func(ctx context.Context, p *harvest.Pipeline) error {
			_, err := p.RunDetails(ctx)
			return err
		})
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "将当日快照合并进综合目录",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, "merge", func(ctx context.Context, p *harvest.Pipeline) error {
			_, err := p.RunMerge(ctx)
			return err
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ModelHarvest %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

// runPipeline 创建存储和浏览会话,执行一个阶段并生成运行报告
func runPipeline(cmd *cobra.Command, command string, run func(ctx context.Context, p *harvest.Pipeline) error) error {
	ctx := cmd.Context()

	store, err := storage.NewFileStore(appConfig.Harvest.DataDir)
	if err != nil {
		return fmt.Errorf("创建数据目录失败: %w", err)
	}

	launcher, err := appConfig.NewLauncher()
	if err != nil {
		return err
	}

	opts := appConfig.HarvestOptions()
	opts.Progress = os.Stdout
	pipeline := harvest.NewPipeline(store, launcher, opts)

	report := models.NewRunReport(command, pipeline.RunDate(), time.Now())
	utils.WithRunID(report.RunID)
	utils.Infof("🚀 开始运行 [%s] (run_id=%s, 数据目录=%s)", command, report.RunID, store.Dir())

	runErr := run(ctx, pipeline)

	report.Stats = pipeline.Stats()
	report.FailedNames = pipeline.FailedNames()

	reporter := utils.NewReporter(store, storage.ReportKey(report.RunDate))
	if err := reporter.GenerateReport(report, runErr); err != nil {
		utils.Warnf("⚠️  %v", err)
	}
	utils.PrintSummary(os.Stdout, report)

	if runErr != nil {
		if ctx.Err() != nil {
			utils.Warn("运行已中断,已写入的检查点在下次运行时继续使用")
		}
		return fmt.Errorf("%s 失败: %w", command, runErr)
	}

	utils.Info("✨ 采集任务完成!")
	return nil
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "o", "", "数据目录 (默认 public/data)")
	rootCmd.PersistentFlags().StringVarP(&mode, "mode", "m", "", "浏览模式 (rod|static)")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")

	// 添加子命令
	rootCmd.AddCommand(listCmd, detailsCmd, mergeCmd, versionCmd)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 设置信号处理(Ctrl+C优雅退出)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		utils.Warnf("\n收到中断信号: %v, 正在优雅关闭...", sig)
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
