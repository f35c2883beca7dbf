package utils

import (
	"fmt"
	"io"
	"time"

	"github.com/RecoveryAshes/ModelHarvest/internal/models"
	"github.com/schollz/progressbar/v3"
)

// DocumentSaver 报告的持久化目标(由storage.Store实现)
type DocumentSaver interface {
	Save(key string, v any) error
}

// Reporter 运行报告生成器
type Reporter struct {
	saver DocumentSaver
	key   string
}

// NewReporter 创建报告生成器
func NewReporter(saver DocumentSaver, key string) *Reporter {
	return &Reporter{
		saver: saver,
		key:   key,
	}
}

// GenerateReport 补全结束时间与耗时并保存运行报告
func (r *Reporter) GenerateReport(report *models.RunReport, runErr error) error {
	report.EndTime = time.Now()
	report.Stats.Duration = FormatDuration(report.EndTime.Sub(report.StartTime))
	if runErr != nil {
		report.Aborted = true
		report.Error = runErr.Error()
	}

	if err := r.saver.Save(r.key, report); err != nil {
		return fmt.Errorf("保存运行报告失败: %w", err)
	}

	Infof("✅ 报告已生成: %s", r.key)
	return nil
}

// PrintSummary 打印运行摘要
func PrintSummary(w io.Writer, report *models.RunReport) {
	s := report.Stats
	fmt.Fprintln(w, "\n==================================================")
	fmt.Fprintf(w, "📊 运行统计 [%s]\n", report.Command)
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "📋 列表模型数: %d\n", s.ListedModels)
	fmt.Fprintf(w, "♻️  已恢复: %d\n", s.ResumedModels)
	fmt.Fprintf(w, "✅ 新获取: %d\n", s.FetchedModels)
	fmt.Fprintf(w, "❌ 失败跳过: %d\n", s.FailedModels)
	fmt.Fprintf(w, "💾 检查点: %d\n", s.Checkpoints)
	fmt.Fprintf(w, "➕ 合并新增: %d\n", s.MergedNew)
	fmt.Fprintf(w, "⏭️  合并跳过重复: %d\n", s.MergedSkipped)
	fmt.Fprintf(w, "📦 综合目录总数: %d\n", s.CatalogTotal)
	fmt.Fprintf(w, "⏱️  总耗时: %.2f秒\n", s.Duration)
	fmt.Fprintln(w, "==================================================")
}

// NewProgressBarTo 创建输出到指定位置的进度条
func NewProgressBarTo(w io.Writer, max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
