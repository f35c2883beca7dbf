package harvest

import (
	"strings"

	"github.com/RecoveryAshes/ModelHarvest/internal/models"
)

// TextHeuristic 从详情页的文本行中推断模型信息
type TextHeuristic interface {
	// Description 模型描述
	Description(lines []string, identifier string) string

	// Downloads 下载量
	Downloads(lines []string) string

	// LastUpdated 最近更新时间
	LastUpdated(lines []string) string
}

// LineHeuristic 基于行位置的默认推断规则
//
// 页面结构变化时这些规则会悄悄给出错误结果,例如模型名称在描述之前
// 已经出现过一次时,会把错误的下一行当作描述。
type LineHeuristic struct{}

// Description 第一处与模型名称完全相同的行的下一行
func (LineHeuristic) Description(lines []string, identifier string) string {
	for i, line := range lines {
		if line == identifier && i+1 < len(lines) {
			return lines[i+1]
		}
	}
	return ""
}

// Downloads 第一处包含"Pulls"的行的上一行
func (LineHeuristic) Downloads(lines []string) string {
	for i, line := range lines {
		if i > 0 && strings.Contains(line, "Pulls") {
			return lines[i-1]
		}
	}
	return models.DefaultDownloads
}

// LastUpdated 第一处包含"ago"的行
func (LineHeuristic) LastUpdated(lines []string) string {
	for _, line := range lines {
		if strings.Contains(line, "ago") {
			return line
		}
	}
	return models.UnknownUpdated
}

// FlattenLines 按行拆分页面文本,去除首尾空白并丢弃空行
func FlattenLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
