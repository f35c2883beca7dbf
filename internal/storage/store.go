// Package storage 提供JSON文档的键值存储
//
// 核心逻辑只通过Store接口读写文档,不接触具体路径。
// FileStore将每个键映射为数据目录下的一个JSON文件,每次写入都是完整文档的原子替换;
// MemoryStore用于测试,并记录每个键的写入次数。
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RecoveryAshes/ModelHarvest/internal/models"
)

// Store JSON文档存储
type Store interface {
	// Load 读取键对应的文档到v中
	// 文档不存在时返回(false, nil)
	Load(key string, v any) (bool, error)

	// Save 以完整文档替换键对应的内容
	Save(key string, v any) error
}

// 文件命名与原有数据目录保持一致
const (
	// BaseListKey 最新的基础模型列表
	BaseListKey = "ollama-models0.json"

	// CombinedKey 综合目录
	CombinedKey = "ollama-models.json"

	// DateLayout 文件名中的日期格式
	DateLayout = "20060102"
)

// DatedBaseListKey 带日期的基础模型列表
func DatedBaseListKey(date string) string {
	return fmt.Sprintf("ollama-models0-%s.json", date)
}

// DailyKey 当日详情快照
func DailyKey(date string) string {
	return fmt.Sprintf("ollama-models-%s.json", date)
}

// ReportKey 运行报告
func ReportKey(date string) string {
	return fmt.Sprintf("reports/run_report-%s.json", date)
}

// RunDate 将时间转换为文件名使用的本地日期
func RunDate(t time.Time) string {
	return t.Format(DateLayout)
}

// encode 统一的JSON编码: 两空格缩进,不转义HTML字符
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decode 解析JSON,失败时包装为持久化错误
func decode(key string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &models.PersistenceError{Key: key, Op: "load", Cause: fmt.Errorf("解析JSON失败: %w", err)}
	}
	return nil
}
