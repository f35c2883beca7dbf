package browser

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/ModelHarvest/internal/models"
	"github.com/RecoveryAshes/ModelHarvest/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"golang.org/x/net/html"
)

// StaticOptions 纯HTTP会话配置
type StaticOptions struct {
	UserAgent      string            // User-Agent,为空时使用Colly默认值
	Headers        map[string]string // 额外请求头
	RequestTimeout time.Duration     // 单次请求超时
}

// StaticLauncher 基于Colly的会话启动器(不执行JavaScript)
type StaticLauncher struct {
	opts StaticOptions
}

// NewStaticLauncher 创建纯HTTP会话启动器
func NewStaticLauncher(opts StaticOptions) *StaticLauncher {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &StaticLauncher{opts: opts}
}

// Open 创建新的HTTP会话
func (sl *StaticLauncher) Open(ctx context.Context, purpose string) (Page, error) {
	utils.Debugf("静态会话已创建 [%s]", purpose)
	return &StaticPage{opts: sl.opts, ctx: ctx, purpose: purpose}, nil
}

// StaticPage 已下载并解析的HTML页面
type StaticPage struct {
	opts    StaticOptions
	ctx     context.Context
	purpose string

	url string
	doc *goquery.Document
}

// NewStaticPageFromHTML 直接由HTML内容构造页面
func NewStaticPageFromHTML(pageURL string, content []byte) (*StaticPage, error) {
	sp := &StaticPage{ctx: context.Background(), purpose: "inline"}
	if err := sp.load(pageURL, content); err != nil {
		return nil, err
	}
	return sp, nil
}

// Navigate 下载页面并解析
func (sp *StaticPage) Navigate(ctx context.Context, pageURL string) error {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(sp.opts.RequestTimeout)
	if sp.opts.UserAgent != "" {
		c.UserAgent = sp.opts.UserAgent
	}

	var (
		body     []byte
		status   int
		fetchErr error
	)

	c.OnRequest(func(r *colly.Request) {
		// br和deflate由响应回调解压
		r.Headers.Set("Accept-Encoding", "gzip, deflate, br")
		for name, value := range sp.opts.Headers {
			r.Headers.Set(name, value)
		}
		utils.Debugf("请求: %s", r.URL.String())
	})

	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body

		encoding := r.Headers.Get("Content-Encoding")
		if encoding == "" {
			return
		}
		decoded, err := decodeBody(encoding, r.Body)
		if err != nil {
			// 解压失败,仍然尝试使用原始body
			utils.Warnf("解压响应失败 [%s] (编码=%s): %v", pageURL, encoding, err)
			return
		}
		body = decoded
	})

	c.OnError(func(r *colly.Response, err error) {
		status = r.StatusCode
		fetchErr = err
	})

	if err := c.Visit(pageURL); err != nil && fetchErr == nil {
		fetchErr = err
	}
	c.Wait()

	if fetchErr != nil {
		return fmt.Errorf("%w: 请求失败 [%s] (HTTP %d): %v", models.ErrBrowsingSession, pageURL, status, fetchErr)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: 请求失败 [%s]: HTTP %d", models.ErrBrowsingSession, pageURL, status)
	}

	return sp.load(pageURL, body)
}

// load 解析HTML
func (sp *StaticPage) load(pageURL string, content []byte) error {
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("%w: 解析HTML失败 [%s]: %v", models.ErrBrowsingSession, pageURL, err)
	}
	sp.url = pageURL
	sp.doc = goquery.NewDocumentFromNode(root)
	return nil
}

// VisibleText 页面可见文本
func (sp *StaticPage) VisibleText(ctx context.Context) (string, error) {
	if sp.doc == nil {
		return "", fmt.Errorf("页面尚未加载")
	}
	body := sp.doc.Find("body")
	if body.Length() == 0 {
		return renderText(sp.doc.Nodes...), nil
	}
	return renderText(body.Nodes...), nil
}

// FindElements 用goquery执行CSS选择器
func (sp *StaticPage) FindElements(ctx context.Context, selector string) ([]Element, error) {
	if sp.doc == nil {
		return nil, fmt.Errorf("页面尚未加载")
	}

	var elements []Element
	sp.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &staticElement{sel: s})
	})
	return elements, nil
}

// Close 静态会话无需释放资源
func (sp *StaticPage) Close() error {
	sp.doc = nil
	return nil
}

// staticElement goquery元素
type staticElement struct {
	sel *goquery.Selection
}

func (se *staticElement) Text(ctx context.Context) (string, error) {
	return renderText(se.sel.Nodes...), nil
}

func (se *staticElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	value, ok := se.sel.Attr(name)
	return value, ok, nil
}

func (se *staticElement) Click(ctx context.Context) error {
	return ErrInteractionUnsupported
}

// skippedTags 不属于可见文本的标签
var skippedTags = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true, "template": true, "svg": true,
}

// blockTags 块级标签,前后换行
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "button": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tr": true, "ul": true,
}

// renderText 近似浏览器的innerText: 块级元素换行,忽略脚本和样式
func renderText(nodes ...*html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			words := strings.Fields(n.Data)
			if len(words) == 0 {
				sb.WriteString(" ")
				return
			}
			if startsWithSpace(n.Data) {
				sb.WriteString(" ")
			}
			sb.WriteString(strings.Join(words, " "))
			if endsWithSpace(n.Data) {
				sb.WriteString(" ")
			}
			return
		case html.ElementNode:
			if skippedTags[n.Data] {
				return
			}
			if n.Data == "br" {
				sb.WriteString("\n")
				return
			}
		}

		block := n.Type == html.ElementNode && blockTags[n.Data]
		if block {
			sb.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			sb.WriteString("\n")
		}
	}

	for _, n := range nodes {
		walk(n)
	}

	lines := strings.Split(sb.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeft(s[:1], " \t\r\n") == ""
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRight(s[len(s)-1:], " \t\r\n") == ""
}

// decodeBody 处理Colly不会自动解压的编码
func decodeBody(contentEncoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "br":
		decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decoded, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decoded, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decoded, nil

	case "gzip":
		// Colly通常已解压gzip,只在仍带gzip魔数时处理
		if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
			return body, nil
		}
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decoded, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decoded, nil

	default:
		return body, nil
	}
}
