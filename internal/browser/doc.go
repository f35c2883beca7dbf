// Package browser 提供采集流程使用的浏览会话
//
// # 概述
//
// 采集核心只依赖Page和Element两个接口:
//
//	page.Navigate(ctx, url)          // 导航并等待文档加载
//	page.VisibleText(ctx)            // 整页可见文本
//	page.FindElements(ctx, selector) // 按DOM顺序返回元素
//	element.Click(ctx)               // 交互操作
//	element.Text(ctx)                // 元素可见文本
//	page.Close()                     // 关闭会话
//
// 固定的渲染等待(settle delay)由调用方负责,会话本身只保证文档加载完成。
//
// # 实现
//
// ## RodLauncher
//
// 基于go-rod驱动本地Chrome,支持无头模式、stealth页面和独立的用户数据目录。
// 每次Open都会启动新的浏览器进程,用户数据目录为
// <user_data_root>/chrome-data-<purpose>-<会话ID>,Close时删除。
// 启动前检查可用内存,不足时返回ErrBrowsingSession,避免Chrome启动后被系统杀掉。
//
//	launcher := NewRodLauncher(RodOptions{Headless: true, Stealth: true})
//	page, err := launcher.Open(ctx, "detail")
//	if err != nil { /* 处理错误 */ }
//	defer page.Close()
//
// ## StaticLauncher
//
// 基于Colly的纯HTTP会话,不执行JavaScript。页面用golang.org/x/net/html解析,
// 选择器由goquery执行。Click总是返回ErrInteractionUnsupported,
// 因此参数版本只能走文本扫描回退。
//
// # 错误处理
//
//   - 导航失败、浏览器崩溃(包括rod的panic): 包装为models.ErrBrowsingSession
//   - 元素操作panic: 包装为models.ErrElementParse;其他元素错误原样返回,由调用方决定跳过还是回退
package browser
