package browser

import (
	"fmt"
	"time"

	"github.com/RecoveryAshes/ModelHarvest/internal/models"
	"github.com/RecoveryAshes/ModelHarvest/internal/utils"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// cpuLoadWarnThreshold CPU负载告警阈值(%)
const cpuLoadWarnThreshold = 90.0

// ResourceStatus 启动浏览器前的系统资源快照
type ResourceStatus struct {
	TotalMemory     uint64  // 系统总内存(字节)
	AvailableMemory uint64  // 可用内存(字节)
	CPUPercent      float64 // CPU使用率(%), 获取失败时为-1
}

// SampleResources 采样系统资源
func SampleResources() (ResourceStatus, error) {
	status := ResourceStatus{CPUPercent: -1}

	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return status, fmt.Errorf("获取系统内存失败: %w", err)
	}
	status.TotalMemory = vmStat.Total
	status.AvailableMemory = vmStat.Available

	percents, err := cpu.Percent(200*time.Millisecond, false)
	if err == nil && len(percents) > 0 {
		status.CPUPercent = percents[0]
	}

	return status, nil
}

// CheckResources 检查是否有足够资源启动浏览器
// minFreeMB<=0时不做检查;采样失败只记录警告
func CheckResources(minFreeMB int) error {
	if minFreeMB <= 0 {
		return nil
	}

	status, err := SampleResources()
	if err != nil {
		utils.Warnf("资源检查跳过: %v", err)
		return nil
	}

	return evaluateResources(status, minFreeMB)
}

// evaluateResources 根据资源快照判断能否启动
func evaluateResources(status ResourceStatus, minFreeMB int) error {
	availableMB := status.AvailableMemory / (1024 * 1024)
	utils.Debugf("可用内存: %d MB / 总内存: %.2f GB, CPU: %.1f%%",
		availableMB, float64(status.TotalMemory)/(1024*1024*1024), status.CPUPercent)

	if availableMB < uint64(minFreeMB) {
		return fmt.Errorf("%w: 可用内存不足 (%d MB < %d MB)", models.ErrBrowsingSession, availableMB, minFreeMB)
	}

	if status.CPUPercent >= cpuLoadWarnThreshold {
		utils.Warnf("CPU负载较高 (%.1f%%), 页面渲染可能变慢", status.CPUPercent)
	}

	return nil
}
