package core

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
)

const (
	// DefaultUserAgent 默认User-Agent
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36"
)

// sensitiveHeaders 日志中需要脱敏的头部
var sensitiveHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
	"X-Api-Key":     true,
	"X-Auth-Token":  true,
}

// ParseHeaderFlags 解析命令行头部,格式: "Name: Value"
func ParseHeaderFlags(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("无效的头部格式 %q (应为 'Name: Value')", h)
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" {
			return nil, fmt.Errorf("头部名称不能为空: %q", h)
		}
		headers[http.CanonicalHeaderKey(name)] = value
	}
	return headers, ValidateHeaders(headers)
}

// ValidateHeaders 验证头部名称和值的合法性
func ValidateHeaders(headers map[string]string) error {
	for name, value := range headers {
		if !httpguts.ValidHeaderFieldName(name) {
			return fmt.Errorf("无效的头部名称: %q", name)
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return fmt.Errorf("头部 %s 的值包含非法字符", name)
		}
	}
	return nil
}

// MergeHeaders 按优先级合并头部 (默认User-Agent < user_agent配置 < headers配置)
// 返回的键均为规范形式
func MergeHeaders(userAgent string, configured map[string]string) map[string]string {
	result := map[string]string{"User-Agent": DefaultUserAgent}
	if userAgent != "" {
		result["User-Agent"] = userAgent
	}
	for name, value := range configured {
		result[http.CanonicalHeaderKey(name)] = value
	}
	return result
}

// RedactHeaders 返回脱敏后的头部(用于日志)
func RedactHeaders(headers map[string]string) map[string]string {
	safe := make(map[string]string, len(headers))
	for name, value := range headers {
		if sensitiveHeaders[http.CanonicalHeaderKey(name)] && value != "" {
			safe[name] = "***"
			continue
		}
		safe[name] = value
	}
	return safe
}
