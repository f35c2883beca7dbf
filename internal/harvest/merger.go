package harvest

import (
	"fmt"
	"time"

	"github.com/RecoveryAshes/ModelHarvest/internal/models"
	"github.com/RecoveryAshes/ModelHarvest/internal/storage"
	"github.com/RecoveryAshes/ModelHarvest/internal/utils"
	om "github.com/wk8/go-ordered-map/v2"
)

// MergeResult 合并统计
type MergeResult struct {
	Updated int // 新增的模型
	Skipped int // 已存在而跳过的模型
	Total   int // 合并后综合目录的模型总数
}

// CatalogMerger 将当日快照合并进综合目录
// 综合目录中已有的模型名称不会被后来的快照覆盖
type CatalogMerger struct {
	store storage.Store
	now   func() time.Time
}

// NewCatalogMerger 创建合并器
func NewCatalogMerger(store storage.Store) *CatalogMerger {
	return &CatalogMerger{
		store: store,
		now:   time.Now,
	}
}

// SetClock 替换时间来源(测试用)
func (m *CatalogMerger) SetClock(now func() time.Time) {
	m.now = now
}

// Merge 合并并保存综合目录
// 综合目录存在但无法解析时中止,不会用空目录覆盖
func (m *CatalogMerger) Merge(daily *models.CatalogDocument) (*models.CatalogDocument, MergeResult, error) {
	var result MergeResult

	var combined models.CatalogDocument
	if _, err := m.store.Load(storage.CombinedKey, &combined); err != nil {
		return nil, result, fmt.Errorf("读取综合目录失败: %w", err)
	}

	// 按名称首次出现的顺序保存记录
	catalog := om.New[string, models.DetailRecord]()
	for _, record := range combined.Models {
		if _, ok := catalog.Get(record.Name); !ok {
			catalog.Set(record.Name, record)
		}
	}

	for _, record := range daily.Models {
		if _, ok := catalog.Get(record.Name); ok {
			result.Skipped++
			continue
		}
		catalog.Set(record.Name, record)
		result.Updated++
	}

	records := make([]models.DetailRecord, 0, catalog.Len())
	for pair := catalog.Oldest(); pair != nil; pair = pair.Next() {
		records = append(records, pair.Value)
	}

	merged := models.NewCatalogDocument(m.now(), records)
	result.Total = len(merged.Models)

	if err := m.store.Save(storage.CombinedKey, merged); err != nil {
		return nil, result, fmt.Errorf("保存综合目录失败: %w", err)
	}

	utils.Infof("🔀 合并完成: 新增 %d, 跳过重复 %d, 总计 %d", result.Updated, result.Skipped, result.Total)
	return merged, result, nil
}
