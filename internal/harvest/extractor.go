package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RecoveryAshes/ModelHarvest/internal/browser"
	"github.com/RecoveryAshes/ModelHarvest/internal/models"
	"github.com/RecoveryAshes/ModelHarvest/internal/utils"
)

// Extractor 从已加载的详情页中提取模型信息
type Extractor struct {
	heuristic  TextHeuristic
	strategies []VariantStrategy
}

// ExtractorOption Extractor配置项
type ExtractorOption func(*Extractor)

// WithHeuristic 替换文本推断规则
func WithHeuristic(h TextHeuristic) ExtractorOption {
	return func(e *Extractor) {
		e.heuristic = h
	}
}

// WithStrategies 替换参数版本策略列表
func WithStrategies(strategies ...VariantStrategy) ExtractorOption {
	return func(e *Extractor) {
		e.strategies = strategies
	}
}

// NewExtractor 创建提取器
// 默认先尝试交互式读取,失败或为空时退回文本扫描
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		heuristic: LineHeuristic{},
		strategies: []VariantStrategy{
			NewInteractiveStrategy("", "", time.Second),
			TextScanStrategy{},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract 提取模型信息
// 无法读取页面文本时返回ErrDetailExtraction,浏览会话失效时原样保留ErrBrowsingSession
func (e *Extractor) Extract(ctx context.Context, page browser.Page, identifier string) (*models.DetailFacts, error) {
	text, err := page.VisibleText(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, models.ErrBrowsingSession) {
			return nil, fmt.Errorf("[%s] 读取页面文本失败: %w", identifier, err)
		}
		return nil, fmt.Errorf("%w [%s]: 读取页面文本失败: %v", models.ErrDetailExtraction, identifier, err)
	}
	lines := FlattenLines(text)

	facts := &models.DetailFacts{
		Description: e.heuristic.Description(lines, identifier),
		Downloads:   e.heuristic.Downloads(lines),
		LastUpdated: e.heuristic.LastUpdated(lines),
	}

	variants, err := e.variants(ctx, page, identifier, lines)
	if err != nil {
		return nil, err
	}
	if variants == nil {
		variants = []models.ParameterVariant{}
	}
	facts.ParameterVersions = variants

	if len(variants) > 0 {
		facts.DefaultSize = variants[0].Size
		facts.DefaultDiskSize = variants[0].DiskSize
	} else {
		facts.DefaultSize = ""
		facts.DefaultDiskSize = models.UnknownDiskSize
	}

	return facts, nil
}

// variants 按顺序尝试各策略
// 策略出错只影响本策略,只有context取消会中断提取
func (e *Extractor) variants(ctx context.Context, page browser.Page, identifier string, lines []string) ([]models.ParameterVariant, error) {
	for _, strategy := range e.strategies {
		variants, err := strategy.Variants(ctx, page, lines)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, models.ErrInteractiveFallback) {
				utils.Debugf("[%s] %s 策略失败,尝试下一个: %v", identifier, strategy.Name(), err)
			} else {
				utils.Warnf("[%s] %s 策略出错: %v", identifier, strategy.Name(), err)
			}
			continue
		}
		if len(variants) > 0 {
			utils.Debugf("[%s] %s 策略获取到 %d 个参数版本", identifier, strategy.Name(), len(variants))
			return variants, nil
		}
	}
	return nil, nil
}
