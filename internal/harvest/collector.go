package harvest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/RecoveryAshes/ModelHarvest/internal/models"
	"github.com/RecoveryAshes/ModelHarvest/internal/storage"
	"github.com/RecoveryAshes/ModelHarvest/internal/utils"
)

// DefaultItemDelay 相邻两次详情请求之间的间隔
const DefaultItemDelay = 3 * time.Second

// CollectorOptions 详情收集配置
type CollectorOptions struct {
	RunDate            string        // 快照日期(YYYYMMDD)
	ItemDelay          time.Duration // 每次请求详情后的等待时间
	RunCommandTemplate string        // 运行命令模板
	Progress           io.Writer     // 进度条输出,为nil时不显示
}

// CollectStats 收集统计
type CollectStats struct {
	Resumed     int      // 从快照恢复
	Fetched     int      // 本次获取成功
	Failed      int      // 本次获取失败
	Checkpoints int      // 写入快照次数
	FailedNames []string // 获取失败的模型
}

// ResumableCollector 可断点续采的详情收集器
//
// 当日快照既是输出也是进度记录: 每成功一个模型就整体写回一次,
// 再次运行时快照中已有的模型直接跳过。
type ResumableCollector struct {
	store   storage.Store
	fetcher DetailFetcher
	opts    CollectorOptions
	now     func() time.Time

	stats CollectStats
}

// NewResumableCollector 创建收集器
func NewResumableCollector(store storage.Store, fetcher DetailFetcher, opts CollectorOptions) *ResumableCollector {
	if opts.RunDate == "" {
		opts.RunDate = storage.RunDate(time.Now())
	}
	return &ResumableCollector{
		store:   store,
		fetcher: fetcher,
		opts:    opts,
		now:     time.Now,
	}
}

// SetClock 替换时间来源(测试用)
func (c *ResumableCollector) SetClock(now func() time.Time) {
	c.now = now
}

// Stats 最近一次Run的统计
func (c *ResumableCollector) Stats() CollectStats {
	return c.stats
}

// Run 依次收集summaries中尚未处理的模型
//
// 返回当前的当日快照。遇到ErrBrowsingSession、持久化失败或context取消时中止,
// 此时返回已完成部分的快照和错误,已写入的检查点保持有效。
func (c *ResumableCollector) Run(ctx context.Context, summaries []models.Summary) (*models.CatalogDocument, error) {
	c.stats = CollectStats{FailedNames: []string{}}
	key := storage.DailyKey(c.opts.RunDate)

	snapshot, err := c.loadSnapshot(key)
	if err != nil {
		return nil, err
	}
	processed := snapshot.Names()
	records := snapshot.Models
	c.stats.Resumed = len(records)

	if c.stats.Resumed > 0 {
		utils.Infof("♻️  从 %s 恢复 %d 个已处理的模型", key, c.stats.Resumed)
	}

	progress := c.opts.Progress
	if progress == nil {
		progress = io.Discard
	}
	bar := utils.NewProgressBarTo(progress, len(summaries), "获取模型详情")
	defer bar.Finish()

	current := func() *models.CatalogDocument {
		return models.NewCatalogDocument(c.now(), records)
	}

	total := len(summaries)
	for i, summary := range summaries {
		logger := utils.ModelLogger(summary.Name, i+1, total)

		if processed[summary.Name] {
			logger.Debug().Msg("已处理,跳过")
			_ = bar.Add(1)
			continue
		}

		utils.Infof("[%d/%d] 获取 %s", i+1, total, summary.Name)
		facts, err := c.fetcher.FetchDetail(ctx, summary.Name)
		_ = bar.Add(1)

		switch {
		case err == nil:
			records = append(records, models.NewDetailRecord(summary, *facts, c.opts.RunCommandTemplate))
			processed[summary.Name] = true
			c.stats.Fetched++

			if err := c.store.Save(key, current()); err != nil {
				logger.Error().Err(err).Msg("写入检查点失败")
				return current(), err
			}
			c.stats.Checkpoints++
			logger.Info().Int("variants", len(facts.ParameterVersions)).Msg("✅ 已保存")

		case isFatal(ctx, err):
			logger.Error().Err(err).Msg("浏览会话失败,中止运行")
			return current(), err

		default:
			c.stats.Failed++
			c.stats.FailedNames = append(c.stats.FailedNames, summary.Name)
			logger.Warn().Err(err).Msg("获取失败,跳过(下次运行重试)")
		}

		if err := utils.Sleep(ctx, c.opts.ItemDelay); err != nil {
			return current(), err
		}
	}

	utils.Infof("📦 详情收集完成: 新获取 %d, 失败 %d, 已恢复 %d",
		c.stats.Fetched, c.stats.Failed, c.stats.Resumed)
	return current(), nil
}

// loadSnapshot 读取当日快照,不存在时返回空快照
// 快照无法解析时返回错误,不覆盖原文件
func (c *ResumableCollector) loadSnapshot(key string) (*models.CatalogDocument, error) {
	var snapshot models.CatalogDocument
	found, err := c.store.Load(key, &snapshot)
	if err != nil {
		return nil, fmt.Errorf("读取当日快照失败: %w", err)
	}
	if !found {
		return models.NewCatalogDocument(c.now(), nil), nil
	}
	if snapshot.Models == nil {
		snapshot.Models = []models.DetailRecord{}
	}
	return &snapshot, nil
}
