package utils

import (
	"context"
	"time"
)

// Sleep 固定等待,context取消时提前返回
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FormatDuration 以秒为单位格式化耗时
func FormatDuration(d time.Duration) float64 {
	return float64(d.Milliseconds()) / 1000
}
