package models

import (
	"fmt"
	"regexp"
	"time"
)

const (
	// UnknownDiskSize 无法获取磁盘大小时的占位值
	UnknownDiskSize = "未知"

	// UnknownUpdated 页面中找不到更新时间时的占位值
	UnknownUpdated = "Unknown"

	// DefaultDownloads 页面中找不到下载量时的默认值
	DefaultDownloads = "0"

	// DefaultRunCommandTemplate 运行命令模板,%s为模型名称
	DefaultRunCommandTemplate = "ollama run %s"
)

var (
	// plainSizePattern 普通参数规模,如 7b, 1.5B
	plainSizePattern = regexp.MustCompile(`^\d+(\.\d+)?[bB]$`)

	// mixtureSizePattern 混合专家参数规模,如 8x7b
	mixtureSizePattern = regexp.MustCompile(`^\d+x\d+[bB]$`)
)

// IsSizeToken 判断字符串是否为合法的参数规模标记
func IsSizeToken(s string) bool {
	return plainSizePattern.MatchString(s) || mixtureSizePattern.MatchString(s)
}

// Summary 列表页中的模型摘要
type Summary struct {
	Name     string `json:"name"`     // 模型标识(唯一)
	FullName string `json:"fullName"` // 展示名称,目前与Name相同
}

// ParameterVariant 模型的一个参数版本
type ParameterVariant struct {
	Size     string `json:"size"`     // 参数规模(小写),如 7b / 8x7b
	DiskSize string `json:"diskSize"` // 磁盘大小,如 4.1GB
}

// DetailFacts 从详情页提取的原始信息
type DetailFacts struct {
	Description       string
	Downloads         string
	LastUpdated       string
	ParameterVersions []ParameterVariant
	DefaultSize       string
	DefaultDiskSize   string
}

// DetailRecord 一个模型的完整详情记录
type DetailRecord struct {
	Name              string             `json:"name"`
	FullName          string             `json:"fullName"`
	Description       string             `json:"description"`
	ModelSize         string             `json:"modelSize"`
	Tags              []string           `json:"tags"`
	Downloads         string             `json:"downloads"`
	LastUpdated       string             `json:"lastUpdated"`
	RunCommand        string             `json:"runCommand"`
	ParameterVersions []ParameterVariant `json:"parameterVersions"`
	DefaultSize       string             `json:"defaultSize"`
	DefaultDiskSize   string             `json:"defaultDiskSize"`
}

// NewDetailRecord 由摘要和详情信息组装详情记录
// runCommandTemplate为空时使用默认模板
func NewDetailRecord(summary Summary, facts DetailFacts, runCommandTemplate string) DetailRecord {
	if runCommandTemplate == "" {
		runCommandTemplate = DefaultRunCommandTemplate
	}

	versions := facts.ParameterVersions
	if versions == nil {
		versions = []ParameterVariant{}
	}

	tags := make([]string, 0, len(versions))
	for _, v := range versions {
		tags = append(tags, v.Size)
	}

	return DetailRecord{
		Name:              summary.Name,
		FullName:          summary.FullName,
		Description:       facts.Description,
		ModelSize:         facts.DefaultSize,
		Tags:              tags,
		Downloads:         facts.Downloads,
		LastUpdated:       facts.LastUpdated,
		RunCommand:        fmt.Sprintf(runCommandTemplate, summary.Name),
		ParameterVersions: versions,
		DefaultSize:       facts.DefaultSize,
		DefaultDiskSize:   facts.DefaultDiskSize,
	}
}

// ListDocument 基础模型列表文件
type ListDocument struct {
	LastUpdated string    `json:"lastUpdated"`
	Models      []Summary `json:"models"`
}

// CatalogDocument 详情集合文件,当日快照与综合目录共用此结构
type CatalogDocument struct {
	LastUpdated string         `json:"lastUpdated"`
	Models      []DetailRecord `json:"models"`
}

// NewCatalogDocument 创建带时间戳的详情集合
func NewCatalogDocument(now time.Time, records []DetailRecord) *CatalogDocument {
	if records == nil {
		records = []DetailRecord{}
	}
	return &CatalogDocument{
		LastUpdated: FormatTimestamp(now),
		Models:      records,
	}
}

// Names 返回集合中所有模型名称的集合
func (d *CatalogDocument) Names() map[string]bool {
	names := make(map[string]bool, len(d.Models))
	for _, m := range d.Models {
		names[m.Name] = true
	}
	return names
}

// FormatTimestamp 统一的时间戳格式(UTC, ISO-8601)
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000")
}
