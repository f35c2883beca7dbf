package harvest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/RecoveryAshes/ModelHarvest/internal/browser"
	"github.com/RecoveryAshes/ModelHarvest/internal/models"
	"github.com/RecoveryAshes/ModelHarvest/internal/utils"
)

// 默认的标签选择器
const (
	DefaultTagButtonSelector = `button[name="tag"]`
	DefaultTagOptionSelector = `#tags-nav a[href^="/library/"]`
)

// VariantStrategy 获取参数版本的一种方式
// Extractor按顺序尝试,直到某个策略返回非空结果
type VariantStrategy interface {
	// Name 策略名称(用于日志)
	Name() string

	// Variants 返回按页面顺序排列的参数版本
	Variants(ctx context.Context, page browser.Page, lines []string) ([]models.ParameterVariant, error)
}

// InteractiveStrategy 点击标签按钮,从展开的下拉框中读取每个版本
type InteractiveStrategy struct {
	ButtonSelector string
	OptionSelector string
	DropdownDelay  time.Duration // 点击后等待下拉框展开
}

// NewInteractiveStrategy 创建交互式策略,选择器为空时使用默认值
func NewInteractiveStrategy(buttonSelector, optionSelector string, dropdownDelay time.Duration) *InteractiveStrategy {
	if buttonSelector == "" {
		buttonSelector = DefaultTagButtonSelector
	}
	if optionSelector == "" {
		optionSelector = DefaultTagOptionSelector
	}
	return &InteractiveStrategy{
		ButtonSelector: buttonSelector,
		OptionSelector: optionSelector,
		DropdownDelay:  dropdownDelay,
	}
}

func (s *InteractiveStrategy) Name() string {
	return "interactive"
}

// Variants 失败时返回包装了ErrInteractiveFallback的错误
func (s *InteractiveStrategy) Variants(ctx context.Context, page browser.Page, lines []string) ([]models.ParameterVariant, error) {
	buttons, err := page.FindElements(ctx, s.ButtonSelector)
	if err != nil {
		return nil, fmt.Errorf("%w: 查找标签按钮失败: %v", models.ErrInteractiveFallback, err)
	}
	if len(buttons) == 0 {
		return nil, fmt.Errorf("%w: 页面中没有标签按钮 %s", models.ErrInteractiveFallback, s.ButtonSelector)
	}

	if err := buttons[0].Click(ctx); err != nil {
		return nil, fmt.Errorf("%w: 点击标签按钮失败: %v", models.ErrInteractiveFallback, err)
	}

	if err := utils.Sleep(ctx, s.DropdownDelay); err != nil {
		return nil, err
	}

	options, err := page.FindElements(ctx, s.OptionSelector)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取标签选项失败: %v", models.ErrInteractiveFallback, err)
	}

	variants := make([]models.ParameterVariant, 0, len(options))
	for i, option := range options {
		text, err := option.Text(ctx)
		if err != nil {
			utils.Debugf("跳过第%d个标签选项: %v", i+1, fmt.Errorf("%w: %v", models.ErrElementParse, err))
			continue
		}
		if strings.Contains(text, "View all") {
			continue
		}
		if v, ok := normalizeVariant(text); ok {
			variants = append(variants, v)
		}
	}

	return variants, nil
}

// TextScanStrategy 扫描页面文本中单独成行的参数规模
// 磁盘大小无法从文本中得到,统一记为未知
type TextScanStrategy struct{}

func (TextScanStrategy) Name() string {
	return "text-scan"
}

func (TextScanStrategy) Variants(ctx context.Context, page browser.Page, lines []string) ([]models.ParameterVariant, error) {
	var variants []models.ParameterVariant
	for _, line := range lines {
		if models.IsSizeToken(line) {
			variants = append(variants, models.ParameterVariant{
				Size:     strings.ToLower(line),
				DiskSize: models.UnknownDiskSize,
			})
		}
	}
	return variants, nil
}

// normalizeVariant 将选项文本转换为参数版本
// 第一个词(小写)为参数规模,最后一个词为磁盘大小;不足两个词时忽略
func normalizeVariant(text string) (models.ParameterVariant, bool) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return models.ParameterVariant{}, false
	}
	return models.ParameterVariant{
		Size:     strings.ToLower(parts[0]),
		DiskSize: parts[len(parts)-1],
	}, true
}
