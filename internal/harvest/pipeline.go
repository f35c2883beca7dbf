package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/RecoveryAshes/ModelHarvest/internal/browser"
	"github.com/RecoveryAshes/ModelHarvest/internal/models"
	"github.com/RecoveryAshes/ModelHarvest/internal/storage"
	"github.com/RecoveryAshes/ModelHarvest/internal/utils"
)

// 默认等待时间
const (
	DefaultSettleDelay   = 5 * time.Second
	DefaultDropdownDelay = time.Second
	DefaultPhasePause    = 2 * time.Second
)

// ErrNoBaseList 尚未生成基础模型列表
var ErrNoBaseList = errors.New("基础模型列表不存在,请先运行list")

// ErrNoDailySnapshot 当日快照不存在
var ErrNoDailySnapshot = errors.New("当日快照不存在,请先运行details")

// Options 采集流程配置
type Options struct {
	BaseURL            string
	ListPath           string
	LinkSelector       string
	TagButtonSelector  string
	TagOptionSelector  string
	RunCommandTemplate string

	SettleDelay   time.Duration // 列表页/详情页加载后的等待
	DropdownDelay time.Duration // 点击标签按钮后的等待
	ItemDelay     time.Duration // 相邻详情请求的间隔
	PhasePause    time.Duration // all命令中阶段之间的停顿

	Progress io.Writer // 进度条输出
}

// Pipeline 串联列表采集、详情收集与目录合并
type Pipeline struct {
	store    storage.Store
	launcher browser.Launcher
	opts     Options
	now      func() time.Time

	stats       models.RunStats
	failedNames []string
}

// NewPipeline 创建采集流程
func NewPipeline(store storage.Store, launcher browser.Launcher, opts Options) *Pipeline {
	return &Pipeline{
		store:       store,
		launcher:    launcher,
		opts:        opts,
		now:         time.Now,
		failedNames: []string{},
	}
}

// SetClock 替换时间来源(测试用)
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// Stats 累计的运行统计
func (p *Pipeline) Stats() models.RunStats {
	return p.stats
}

// FailedNames 本次获取失败的模型
func (p *Pipeline) FailedNames() []string {
	return p.failedNames
}

// RunDate 当前运行日期(YYYYMMDD)
func (p *Pipeline) RunDate() string {
	return storage.RunDate(p.now())
}

// RunList 采集基础模型列表,并保存最新版本和带日期的副本
func (p *Pipeline) RunList(ctx context.Context) ([]models.Summary, error) {
	harvester := NewListHarvester(p.launcher, ListOptions{
		BaseURL:      p.opts.BaseURL,
		ListPath:     p.opts.ListPath,
		LinkSelector: p.opts.LinkSelector,
		SettleDelay:  p.opts.SettleDelay,
	})

	summaries, err := harvester.Harvest(ctx)
	if err != nil {
		return nil, err
	}
	p.stats.ListedModels = len(summaries)

	if len(summaries) == 0 {
		// 页面结构变化时会得到空列表,保留上一次的基础列表
		utils.Warn("⚠️  列表页没有找到任何模型,不更新基础列表")
		return summaries, nil
	}

	doc := &models.ListDocument{
		LastUpdated: models.FormatTimestamp(p.now()),
		Models:      summaries,
	}
	for _, key := range []string{storage.BaseListKey, storage.DatedBaseListKey(p.RunDate())} {
		if err := p.store.Save(key, doc); err != nil {
			return summaries, fmt.Errorf("保存基础模型列表失败: %w", err)
		}
		utils.Infof("💾 基础模型列表已保存: %s", key)
	}

	return summaries, nil
}

// RunDetails 按基础列表收集当日详情,完成后合并进综合目录
func (p *Pipeline) RunDetails(ctx context.Context) (*models.CatalogDocument, error) {
	var list models.ListDocument
	found, err := p.store.Load(storage.BaseListKey, &list)
	if err != nil {
		return nil, fmt.Errorf("读取基础模型列表失败: %w", err)
	}
	if !found {
		return nil, ErrNoBaseList
	}
	if p.stats.ListedModels == 0 {
		p.stats.ListedModels = len(list.Models)
	}

	fetcher := &lazyDetailFetcher{
		launcher: p.launcher,
		newHarvester: func(page browser.Page) *DetailHarvester {
			extractor := NewExtractor(WithStrategies(
				NewInteractiveStrategy(p.opts.TagButtonSelector, p.opts.TagOptionSelector, p.opts.DropdownDelay),
				TextScanStrategy{},
			))
			return NewDetailHarvester(page, extractor, p.opts.BaseURL, p.opts.SettleDelay)
		},
	}
	defer fetcher.Close()

	collector := NewResumableCollector(p.store, fetcher, CollectorOptions{
		RunDate:            p.RunDate(),
		ItemDelay:          p.opts.ItemDelay,
		RunCommandTemplate: p.opts.RunCommandTemplate,
		Progress:           p.opts.Progress,
	})
	collector.SetClock(p.now)

	daily, err := collector.Run(ctx, list.Models)
	p.recordCollect(collector.Stats())
	if err != nil {
		return daily, err
	}

	if err := p.merge(daily); err != nil {
		return daily, err
	}
	return daily, nil
}

// RunMerge 把当日快照合并进综合目录
func (p *Pipeline) RunMerge(ctx context.Context) (MergeResult, error) {
	if err := ctx.Err(); err != nil {
		return MergeResult{}, err
	}

	key := storage.DailyKey(p.RunDate())
	var daily models.CatalogDocument
	found, err := p.store.Load(key, &daily)
	if err != nil {
		return MergeResult{}, fmt.Errorf("读取当日快照失败: %w", err)
	}
	if !found {
		return MergeResult{}, fmt.Errorf("%w: %s", ErrNoDailySnapshot, key)
	}

	if err := p.merge(&daily); err != nil {
		return MergeResult{}, err
	}
	return MergeResult{
		Updated: p.stats.MergedNew,
		Skipped: p.stats.MergedSkipped,
		Total:   p.stats.CatalogTotal,
	}, nil
}

// RunAll 依次执行列表采集、详情收集和合并
func (p *Pipeline) RunAll(ctx context.Context) error {
	utils.Info("🚀 阶段1/2: 更新基础模型列表")
	if _, err := p.RunList(ctx); err != nil {
		return fmt.Errorf("列表阶段失败: %w", err)
	}

	if err := utils.Sleep(ctx, p.opts.PhasePause); err != nil {
		return err
	}

	utils.Info("🚀 阶段2/2: 获取模型详情并合并")
	if _, err := p.RunDetails(ctx); err != nil {
		return fmt.Errorf("详情阶段失败: %w", err)
	}
	return nil
}

func (p *Pipeline) merge(daily *models.CatalogDocument) error {
	merger := NewCatalogMerger(p.store)
	merger.SetClock(p.now)

	_, result, err := merger.Merge(daily)
	if err != nil {
		return err
	}
	p.stats.MergedNew = result.Updated
	p.stats.MergedSkipped = result.Skipped
	p.stats.CatalogTotal = result.Total
	return nil
}

func (p *Pipeline) recordCollect(s CollectStats) {
	p.stats.ResumedModels = s.Resumed
	p.stats.FetchedModels = s.Fetched
	p.stats.FailedModels = s.Failed
	p.stats.Checkpoints = s.Checkpoints
	p.failedNames = append(p.failedNames, s.FailedNames...)
}

// lazyDetailFetcher 第一次需要获取详情时才启动浏览会话
// 当日快照已包含全部模型时不会启动浏览器
type lazyDetailFetcher struct {
	launcher     browser.Launcher
	newHarvester func(page browser.Page) *DetailHarvester

	page      browser.Page
	harvester *DetailHarvester
}

func (f *lazyDetailFetcher) FetchDetail(ctx context.Context, identifier string) (*models.DetailFacts, error) {
	if f.harvester == nil {
		page, err := f.launcher.Open(ctx, "detail")
		if err != nil {
			return nil, sessionError(ctx, err, "启动详情会话失败")
		}
		f.page = page
		f.harvester = f.newHarvester(page)
	}
	return f.harvester.FetchDetail(ctx, identifier)
}

func (f *lazyDetailFetcher) Close() {
	if f.page == nil {
		return
	}
	if err := f.page.Close(); err != nil {
		utils.Warnf("关闭详情会话失败: %v", err)
	}
	f.page = nil
	f.harvester = nil
}
