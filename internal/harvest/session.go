package harvest

import (
	"context"
	"errors"
	"fmt"

	"github.com/RecoveryAshes/ModelHarvest/internal/models"
)

// sessionError 将导航/会话错误统一归类为ErrBrowsingSession
// context取消的错误原样返回
func sessionError(ctx context.Context, err error, format string, args ...any) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, models.ErrBrowsingSession) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%w: %s: %v", models.ErrBrowsingSession, msg, err)
}

// isFatal 需要中止整个运行的错误
func isFatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, models.ErrBrowsingSession) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
