package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/ModelHarvest/internal/models"
	"github.com/RecoveryAshes/ModelHarvest/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// RodOptions Chrome会话配置
type RodOptions struct {
	Headless          bool              // 无头模式
	BinPath           string            // Chrome可执行文件路径,为空时自动查找/下载
	UserDataRoot      string            // 用户数据目录的父目录,为空时使用系统临时目录
	Stealth           bool              // 使用stealth页面隐藏自动化特征
	UserAgent         string            // 覆盖User-Agent,为空时不修改
	Headers           map[string]string // 额外请求头
	NavigationTimeout time.Duration     // 单次导航超时
	MinFreeMemoryMB   int               // 启动前要求的最小可用内存(MB)
}

// RodLauncher 基于go-rod的会话启动器
type RodLauncher struct {
	opts RodOptions
}

// NewRodLauncher 创建Chrome会话启动器
func NewRodLauncher(opts RodOptions) *RodLauncher {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	if opts.UserDataRoot == "" {
		opts.UserDataRoot = os.TempDir()
	}
	return &RodLauncher{opts: opts}
}

// Open 启动一个新的Chrome进程并打开页面
func (rl *RodLauncher) Open(ctx context.Context, purpose string) (p Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("浏览器启动panic: %v", r)
			err = fmt.Errorf("%w: 启动panic: %v", models.ErrBrowsingSession, r)
		}
	}()

	if err := CheckResources(rl.opts.MinFreeMemoryMB); err != nil {
		return nil, err
	}

	// 每个会话使用独立的用户数据目录,避免与同时运行的实例冲突
	dataDir := filepath.Join(rl.opts.UserDataRoot, fmt.Sprintf("chrome-data-%s-%s", purpose, models.NewSessionID()))

	l := launcher.New().
		Context(ctx).
		Headless(rl.opts.Headless).
		NoSandbox(true).
		UserDataDir(dataDir).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled")
	if rl.opts.BinPath != "" {
		l = l.Bin(rl.opts.BinPath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: 启动浏览器失败: %v", models.ErrBrowsingSession, err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("%w: 连接浏览器失败: %v", models.ErrBrowsingSession, err)
	}

	var page *rod.Page
	if rl.opts.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		b.Close()
		l.Cleanup()
		return nil, fmt.Errorf("%w: 创建标签页失败(浏览器可能已崩溃): %v", models.ErrBrowsingSession, err)
	}

	if rl.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: rl.opts.UserAgent}); err != nil {
			utils.Warnf("设置User-Agent失败: %v", err)
		}
	}

	if len(rl.opts.Headers) > 0 {
		dict := make([]string, 0, len(rl.opts.Headers)*2)
		for name, value := range rl.opts.Headers {
			dict = append(dict, name, value)
		}
		if _, err := page.SetExtraHeaders(dict); err != nil {
			utils.Warnf("设置请求头失败: %v", err)
		}
	}

	utils.Debugf("浏览器已启动 [%s]: %s (用户数据目录: %s, stealth=%v)", purpose, controlURL, dataDir, rl.opts.Stealth)

	return &RodPage{
		browser:    b,
		launcher:   l,
		page:       page,
		navTimeout: rl.opts.NavigationTimeout,
		purpose:    purpose,
	}, nil
}

// RodPage go-rod页面
type RodPage struct {
	browser    *rod.Browser
	launcher   *launcher.Launcher
	page       *rod.Page
	navTimeout time.Duration
	purpose    string
}

// Navigate 导航并等待load事件
func (rp *RodPage) Navigate(ctx context.Context, url string) (err error) {
	defer recoverSession(&err, "导航")

	navCtx, cancel := context.WithTimeout(ctx, rp.navTimeout)
	defer cancel()

	page := rp.page.Context(navCtx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("%w: 导航失败 [%s]: %v", models.ErrBrowsingSession, url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("%w: 等待页面加载失败 [%s]: %v", models.ErrBrowsingSession, url, err)
	}
	return nil
}

// VisibleText 读取body的innerText
func (rp *RodPage) VisibleText(ctx context.Context) (text string, err error) {
	defer recoverSession(&err, "读取页面文本")

	readCtx, cancel := context.WithTimeout(ctx, rp.navTimeout)
	defer cancel()

	body, err := rp.page.Context(readCtx).Element("body")
	if err != nil {
		return "", fmt.Errorf("查找body失败: %w", err)
	}
	return body.Text()
}

// FindElements 按选择器查找元素,找不到时返回空列表
func (rp *RodPage) FindElements(ctx context.Context, selector string) (elements []Element, err error) {
	defer recoverSession(&err, "查找元素")

	found, err := rp.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("查找元素失败 [%s]: %w", selector, err)
	}

	elements = make([]Element, 0, len(found))
	for _, el := range found {
		elements = append(elements, &rodElement{el: el})
	}
	return elements, nil
}

// Close 关闭浏览器并删除用户数据目录
func (rp *RodPage) Close() (err error) {
	defer recoverSession(&err, "关闭浏览器")

	if rp.browser != nil {
		if err = rp.browser.Close(); err != nil {
			utils.Warnf("关闭浏览器失败 [%s]: %v", rp.purpose, err)
			rp.launcher.Kill()
		}
	}
	if rp.launcher != nil {
		rp.launcher.Cleanup()
	}
	utils.Debugf("浏览器已关闭 [%s]", rp.purpose)
	return err
}

// rodElement go-rod元素
type rodElement struct {
	el *rod.Element
}

func (re *rodElement) Text(ctx context.Context) (text string, err error) {
	defer recoverElement(&err)
	return re.el.Context(ctx).Text()
}

func (re *rodElement) Attribute(ctx context.Context, name string) (value string, ok bool, err error) {
	defer recoverElement(&err)

	attr, err := re.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", false, err
	}
	if attr == nil {
		return "", false, nil
	}
	return *attr, true, nil
}

func (re *rodElement) Click(ctx context.Context) (err error) {
	defer recoverElement(&err)
	return re.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// recoverSession 将会话级panic转换为ErrBrowsingSession
func recoverSession(err *error, action string) {
	if r := recover(); r != nil {
		utils.Errorf("浏览器操作panic [%s]: %v", action, r)
		*err = fmt.Errorf("%w: %s panic: %v", models.ErrBrowsingSession, action, r)
	}
}

// recoverElement 元素级panic只影响当前元素
func recoverElement(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: 元素操作panic: %v", models.ErrElementParse, r)
	}
}
