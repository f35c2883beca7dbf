package browser

import (
	"errors"
	"testing"

	"github.com/RecoveryAshes/ModelHarvest/internal/models"
)

func TestEvaluateResources(t *testing.T) {
	const mb = 1024 * 1024

	tests := []struct {
		name      string
		status    ResourceStatus
		minFreeMB int
		wantErr   bool
	}{
		{"内存充足", ResourceStatus{AvailableMemory: 2048 * mb, CPUPercent: 10}, 512, false},
		{"内存不足", ResourceStatus{AvailableMemory: 100 * mb, CPUPercent: 10}, 512, true},
		{"CPU过高只告警", ResourceStatus{AvailableMemory: 2048 * mb, CPUPercent: 99}, 512, false},
		{"未设置阈值", ResourceStatus{AvailableMemory: 1 * mb, CPUPercent: 10}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := evaluateResources(tt.status, tt.minFreeMB)
			if (err != nil) != tt.wantErr {
				t.Fatalf("evaluateResources() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, models.ErrBrowsingSession) {
				t.Errorf("错误应包装ErrBrowsingSession: %v", err)
			}
		})
	}
}
