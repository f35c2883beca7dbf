package models

import (
	"errors"
	"fmt"
)

// 错误分类
var (
	// ErrElementParse 单个卡片或选项解析失败,跳过该元素
	ErrElementParse = errors.New("元素解析失败")

	// ErrDetailExtraction 整个详情页解析失败,本次运行跳过该模型
	ErrDetailExtraction = errors.New("详情提取失败")

	// ErrInteractiveFallback 交互式读取参数版本失败,需要回退到文本扫描
	ErrInteractiveFallback = errors.New("交互式参数读取失败")

	// ErrBrowsingSession 浏览器会话或导航失败,中止本次运行
	ErrBrowsingSession = errors.New("浏览器会话失败")

	// ErrPersistence JSON文件读写失败
	ErrPersistence = errors.New("持久化失败")
)

// PersistenceError 存储读写错误
type PersistenceError struct {
	// Key 存储键
	Key string

	// Op 操作类型 (load / save)
	Op string

	// Cause 底层错误
	Cause error
}

// Error 实现error接口
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s [%s] %s: %v", ErrPersistence.Error(), e.Key, e.Op, e.Cause)
}

// Unwrap 支持errors.Is(err, ErrPersistence)以及底层错误的判断
func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Cause}
}
