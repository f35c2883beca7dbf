package models

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// ValidateURL 验证URL
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("无效的URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL必须是HTTP或HTTPS协议")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL必须包含主机名")
	}
	return nil
}

// DetailURL 生成模型详情页地址: <base>/library/<name>
func DetailURL(baseURL, name string) string {
	return strings.TrimRight(baseURL, "/") + "/library/" + url.PathEscape(name)
}

// JoinURL 拼接基础地址与路径(路径可带查询参数)
func JoinURL(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// UniqueSummaries 按名称去重,保留首次出现的顺序
func UniqueSummaries(summaries []Summary) []Summary {
	seen := make(map[string]bool, len(summaries))
	result := make([]Summary, 0, len(summaries))
	for _, s := range summaries {
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		result = append(result, s)
	}
	return result
}

// generateID 生成唯一ID
func generateID() string {
	return uuid.New().String()
}

// NewSessionID 生成浏览器会话ID(用于隔离用户数据目录)
func NewSessionID() string {
	return uuid.New().String()[:8]
}
