package harvest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/RecoveryAshes/ModelHarvest/internal/browser"
	"github.com/RecoveryAshes/ModelHarvest/internal/models"
	"github.com/RecoveryAshes/ModelHarvest/internal/utils"
)

// 列表页默认配置
const (
	DefaultListPath           = "/library?sort=popular"
	DefaultDetailLinkSelector = `a[href^="/library/"]`
)

// ListOptions 列表采集配置
type ListOptions struct {
	BaseURL      string        // 站点地址,如 https://ollama.com
	ListPath     string        // 列表页路径
	LinkSelector string        // 模型链接选择器
	SettleDelay  time.Duration // 页面加载后的等待时间
}

// ListHarvester 采集基础模型列表
type ListHarvester struct {
	launcher browser.Launcher
	opts     ListOptions
}

// NewListHarvester 创建列表采集器
func NewListHarvester(launcher browser.Launcher, opts ListOptions) *ListHarvester {
	if opts.ListPath == "" {
		opts.ListPath = DefaultListPath
	}
	if opts.LinkSelector == "" {
		opts.LinkSelector = DefaultDetailLinkSelector
	}
	return &ListHarvester{
		launcher: launcher,
		opts:     opts,
	}
}

// Harvest 按页面顺序(热度排名)返回模型摘要
// 会话或导航失败时返回ErrBrowsingSession,不返回部分结果
func (h *ListHarvester) Harvest(ctx context.Context) ([]models.Summary, error) {
	page, err := h.launcher.Open(ctx, "list")
	if err != nil {
		return nil, sessionError(ctx, err, "启动列表会话失败")
	}
	defer func() {
		if err := page.Close(); err != nil {
			utils.Warnf("关闭列表会话失败: %v", err)
		}
	}()

	listURL := models.JoinURL(h.opts.BaseURL, h.opts.ListPath)
	utils.Infof("🌐 打开模型列表: %s", listURL)

	if err := page.Navigate(ctx, listURL); err != nil {
		return nil, sessionError(ctx, err, "打开列表页失败 [%s]", listURL)
	}
	if err := utils.Sleep(ctx, h.opts.SettleDelay); err != nil {
		return nil, err
	}

	links, err := page.FindElements(ctx, h.opts.LinkSelector)
	if err != nil {
		return nil, sessionError(ctx, err, "查找模型链接失败")
	}

	summaries := make([]models.Summary, 0, len(links))
	for i, link := range links {
		text, err := link.Text(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			utils.Warnf("跳过第%d个模型卡片: %v", i+1, fmt.Errorf("%w: %v", models.ErrElementParse, err))
			continue
		}

		name := firstLine(text)
		if name == "" {
			continue
		}

		href, ok, err := link.Attribute(ctx, "href")
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			utils.Warnf("跳过第%d个模型卡片: %v", i+1, fmt.Errorf("%w: 读取href失败: %v", models.ErrElementParse, err))
			continue
		}
		// 选择器同时会匹配 /library/<name>/tags 这类子页面链接
		if ok && !isDetailHref(href) {
			utils.Debugf("跳过非详情页链接: %s", href)
			continue
		}
		summaries = append(summaries, models.Summary{Name: name, FullName: name})
	}

	unique := models.UniqueSummaries(summaries)
	if dropped := len(summaries) - len(unique); dropped > 0 {
		utils.Debugf("列表中有 %d 个重复的模型链接", dropped)
	}

	utils.Infof("📋 找到 %d 个模型", len(unique))
	return unique, nil
}

// isDetailHref href是否指向 /library/<name> 详情页
func isDetailHref(href string) bool {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return false
	}
	rest, found := strings.CutPrefix(u.Path, "/library/")
	rest = strings.TrimSuffix(rest, "/")
	return found && rest != "" && !strings.Contains(rest, "/")
}

// firstLine 文本的第一行(去除首尾空白)
func firstLine(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return strings.TrimSpace(line)
}
