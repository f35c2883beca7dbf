package browser

import (
	"context"
	"errors"
)

// ErrInteractionUnsupported 当前会话不支持交互操作(如静态模式下的点击)
var ErrInteractionUnsupported = errors.New("当前会话不支持交互操作")

// Element 页面元素句柄
type Element interface {
	// Text 元素的可见文本(按块级元素换行)
	Text(ctx context.Context) (string, error)

	// Attribute 读取属性,属性不存在时ok为false
	Attribute(ctx context.Context, name string) (value string, ok bool, err error)

	// Click 点击元素
	Click(ctx context.Context) error
}

// Page 浏览会话中的单个页面
// 所有方法都是阻塞调用
type Page interface {
	// Navigate 导航到url并等待文档加载完成
	Navigate(ctx context.Context, url string) error

	// VisibleText 整个页面的可见文本
	VisibleText(ctx context.Context) (string, error)

	// FindElements 按CSS选择器查找元素,保持DOM顺序
	FindElements(ctx context.Context, selector string) ([]Element, error)

	// Close 关闭页面以及所属的浏览器会话
	Close() error
}

// Launcher 创建浏览会话
// purpose用于区分会话的工作目录(如list/detail),同时运行的两个会话互不干扰
type Launcher interface {
	Open(ctx context.Context, purpose string) (Page, error)
}
