package harvest

import (
	"context"
	"time"

	"github.com/RecoveryAshes/ModelHarvest/internal/browser"
	"github.com/RecoveryAshes/ModelHarvest/internal/models"
	"github.com/RecoveryAshes/ModelHarvest/internal/utils"
)

// DetailFetcher 获取单个模型的详情
type DetailFetcher interface {
	FetchDetail(ctx context.Context, identifier string) (*models.DetailFacts, error)
}

// DetailHarvester 在同一个浏览会话中依次访问详情页
type DetailHarvester struct {
	page        browser.Page
	extractor   *Extractor
	baseURL     string
	settleDelay time.Duration
}

// NewDetailHarvester 创建详情采集器,page由调用方负责关闭
func NewDetailHarvester(page browser.Page, extractor *Extractor, baseURL string, settleDelay time.Duration) *DetailHarvester {
	if extractor == nil {
		extractor = NewExtractor()
	}
	return &DetailHarvester{
		page:        page,
		extractor:   extractor,
		baseURL:     baseURL,
		settleDelay: settleDelay,
	}
}

// FetchDetail 打开详情页并提取信息
// 导航失败返回ErrBrowsingSession,提取失败返回ErrDetailExtraction
func (h *DetailHarvester) FetchDetail(ctx context.Context, identifier string) (*models.DetailFacts, error) {
	detailURL := models.DetailURL(h.baseURL, identifier)
	utils.Debugf("打开详情页: %s", detailURL)

	if err := h.page.Navigate(ctx, detailURL); err != nil {
		return nil, sessionError(ctx, err, "打开详情页失败 [%s]", detailURL)
	}
	if err := utils.Sleep(ctx, h.settleDelay); err != nil {
		return nil, err
	}

	return h.extractor.Extract(ctx, h.page, identifier)
}
