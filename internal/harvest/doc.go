// Package harvest 实现Ollama模型库的目录采集
//
// 采集分为三个阶段:
//
//  1. ListHarvester 打开列表页(按热度排序),读取所有模型链接,得到基础模型列表
//  2. ResumableCollector 逐个访问详情页,由Extractor从页面文本中提取描述、下载量、
//     更新时间和参数版本;每成功一个模型就把当日快照整体写回存储,中断后可从快照继续
//  3. CatalogMerger 把当日快照合并进综合目录,已存在的模型名称保持不变
//
// Pipeline 负责把三个阶段串起来,并汇总运行统计。
//
// 页面访问只依赖browser.Page / browser.Element接口,存储只依赖storage.Store接口,
// 测试中分别用内存实现替换。
package harvest
