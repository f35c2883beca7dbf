package utils

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/RecoveryAshes/ModelHarvest/internal/models"
)

type recordingSaver struct {
	key string
	doc any
	err error
}

func (s *recordingSaver) Save(key string, v any) error {
	if s.err != nil {
		return s.err
	}
	s.key = key
	s.doc = v
	return nil
}

func TestReporter_GenerateReport(t *testing.T) {
	saver := &recordingSaver{}
	reporter := NewReporter(saver, "reports/run_report-20240301.json")

	report := models.NewRunReport("details", "20240301", time.Now().Add(-2*time.Second))
	report.Stats.FetchedModels = 5

	if err := reporter.GenerateReport(report, nil); err != nil {
		t.Fatalf("生成报告失败: %v", err)
	}
	if saver.key != "reports/run_report-20240301.json" {
		t.Errorf("报告键错误: %s", saver.key)
	}
	if report.Stats.Duration < 2 {
		t.Errorf("耗时应至少2秒, 得到 %.2f", report.Stats.Duration)
	}
	if report.Aborted {
		t.Error("成功的运行不应标记为中止")
	}
}

func TestReporter_AbortedRun(t *testing.T) {
	saver := &recordingSaver{}
	reporter := NewReporter(saver, "r.json")

	report := models.NewRunReport("all", "20240301", time.Now())
	if err := reporter.GenerateReport(report, errors.New("浏览器会话失败")); err != nil {
		t.Fatalf("生成报告失败: %v", err)
	}
	if !report.Aborted || report.Error == "" {
		t.Errorf("中止的运行应记录错误: %+v", report)
	}

	saver.err = errors.New("磁盘已满")
	if err := reporter.GenerateReport(report, nil); err == nil {
		t.Error("保存失败应返回错误")
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	report := models.NewRunReport("merge", "20240301", time.Now())
	report.Stats.MergedNew = 7
	report.Stats.MergedSkipped = 3

	PrintSummary(&buf, report)

	out := buf.String()
	if !strings.Contains(out, "合并新增: 7") || !strings.Contains(out, "合并跳过重复: 3") {
		t.Errorf("摘要缺少合并统计: %s", out)
	}
}

func TestSleep(t *testing.T) {
	if err := Sleep(context.Background(), 10*time.Millisecond); err != nil {
		t.Errorf("正常等待不应返回错误: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := Sleep(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("取消后应返回context.Canceled, 得到 %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("取消后应立即返回")
	}
}
