package harvest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RecoveryAshes/ModelHarvest/internal/browser"
	"github.com/RecoveryAshes/ModelHarvest/internal/models"
)

var errFake = errors.New("fake failure")

// fakeElement 内存中的页面元素
type fakeElement struct {
	text     string
	textErr  error
	attrs    map[string]string
	clickErr error
	clicks   int
}

func (e *fakeElement) Text(ctx context.Context) (string, error) {
	return e.text, e.textErr
}

func (e *fakeElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, ok := e.attrs[name]
	return v, ok, nil
}

func (e *fakeElement) Click(ctx context.Context) error {
	e.clicks++
	return e.clickErr
}

func textElements(texts ...string) []browser.Element {
	elements := make([]browser.Element, 0, len(texts))
	for _, t := range texts {
		elements = append(elements, &fakeElement{text: t})
	}
	return elements
}

// fakeContent 一个URL对应的页面内容
type fakeContent struct {
	text     string
	textErr  error
	elements map[string][]browser.Element
}

// fakePage 按URL返回预设内容的页面
type fakePage struct {
	mu       sync.Mutex
	contents map[string]*fakeContent
	navErr   map[string]error
	current  *fakeContent

	navigated []string
	closed    bool
}

func newFakePage() *fakePage {
	return &fakePage{
		contents: make(map[string]*fakeContent),
		navErr:   make(map[string]error),
	}
}

// loadedPage 已处于某个页面的fakePage
func loadedPage(content *fakeContent) *fakePage {
	p := newFakePage()
	p.current = content
	return p
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.navigated = append(p.navigated, url)
	if err, ok := p.navErr[url]; ok {
		return err
	}
	content, ok := p.contents[url]
	if !ok {
		return fmt.Errorf("no content for %s", url)
	}
	p.current = content
	return nil
}

func (p *fakePage) VisibleText(ctx context.Context) (string, error) {
	if p.current == nil {
		return "", errors.New("nothing loaded")
	}
	return p.current.text, p.current.textErr
}

func (p *fakePage) FindElements(ctx context.Context, selector string) ([]browser.Element, error) {
	if p.current == nil {
		return nil, errors.New("nothing loaded")
	}
	return p.current.elements[selector], nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

// fakeLauncher 每次Open都返回同一个fakePage
type fakeLauncher struct {
	page    *fakePage
	openErr error
	opened  []string
}

func (l *fakeLauncher) Open(ctx context.Context, purpose string) (browser.Page, error) {
	l.opened = append(l.opened, purpose)
	if l.openErr != nil {
		return nil, l.openErr
	}
	return l.page, nil
}

// fakeFetcher 按名称返回预设的详情或错误
type fakeFetcher struct {
	facts map[string]*models.DetailFacts
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) FetchDetail(ctx context.Context, identifier string) (*models.DetailFacts, error) {
	f.calls = append(f.calls, identifier)
	if err, ok := f.errs[identifier]; ok {
		return nil, err
	}
	if facts, ok := f.facts[identifier]; ok {
		return facts, nil
	}
	return nil, fmt.Errorf("%w: unknown model %s", models.ErrDetailExtraction, identifier)
}

func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func sampleFacts(size, disk string) *models.DetailFacts {
	return &models.DetailFacts{
		Description:       "A model",
		Downloads:         "1.2M",
		LastUpdated:       "2 weeks ago",
		ParameterVersions: []models.ParameterVariant{{Size: size, DiskSize: disk}},
		DefaultSize:       size,
		DefaultDiskSize:   disk,
	}
}

func summaries(names ...string) []models.Summary {
	result := make([]models.Summary, 0, len(names))
	for _, n := range names {
		result = append(result, models.Summary{Name: n, FullName: n})
	}
	return result
}

func record(name string) models.DetailRecord {
	return models.NewDetailRecord(models.Summary{Name: name, FullName: name}, *sampleFacts("7b", "4.1GB"), "")
}
