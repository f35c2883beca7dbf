package main

import (
	"fmt"

	"github.com/RecoveryAshes/ModelHarvest/internal/core"
	"github.com/rs/zerolog"
)

// ValidateFlags 验证命令行标志
// 空值表示未指定,由配置文件决定
func ValidateFlags(mode string, logLevel string, headers []string) error {
	// 验证模式
	validModes := map[string]bool{
		"":              true,
		core.ModeRod:    true,
		core.ModeStatic: true,
	}
	if !validModes[mode] {
		return fmt.Errorf("无效的浏览模式: %s (有效值: rod, static)", mode)
	}

	// 验证日志级别
	if logLevel != "" {
		if _, err := zerolog.ParseLevel(logLevel); err != nil {
			return fmt.Errorf("无效的日志级别: %s", logLevel)
		}
	}

	// 验证头部格式
	if len(headers) > 0 {
		if _, err := core.ParseHeaderFlags(headers); err != nil {
			return err
		}
	}

	return nil
}
