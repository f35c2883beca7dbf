package models

import (
	"time"
)

// RunStats 一次运行的统计
type RunStats struct {
	ListedModels  int     `json:"listed_models"`  // 列表页发现的模型数
	ResumedModels int     `json:"resumed_models"` // 从当日快照恢复的模型数
	FetchedModels int     `json:"fetched_models"` // 本次成功获取详情的模型数
	FailedModels  int     `json:"failed_models"`  // 本次获取失败被跳过的模型数
	Checkpoints   int     `json:"checkpoints"`    // 写入检查点次数
	MergedNew     int     `json:"merged_new"`     // 合并时新增的模型数
	MergedSkipped int     `json:"merged_skipped"` // 合并时因重复跳过的模型数
	CatalogTotal  int     `json:"catalog_total"`  // 综合目录总模型数
	Duration      float64 `json:"duration"`       // 总耗时(秒)
}

// RunReport 运行报告
type RunReport struct {
	RunID     string    `json:"run_id"`
	Command   string    `json:"command"`
	RunDate   string    `json:"run_date"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Aborted   bool      `json:"aborted"`
	Error     string    `json:"error,omitempty"`

	Stats RunStats `json:"stats"`

	// FailedNames 本次获取失败、下次运行仍会重试的模型
	FailedNames []string `json:"failed_names"`
}

// NewRunReport 创建运行报告
func NewRunReport(command string, runDate string, start time.Time) *RunReport {
	return &RunReport{
		RunID:       generateID(),
		Command:     command,
		RunDate:     runDate,
		StartTime:   start,
		FailedNames: []string{},
	}
}
