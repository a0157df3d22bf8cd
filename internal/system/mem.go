package system

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
)

type MemoryCounters struct {
	TotalBytes     uint64
	AvailableBytes uint64
	UsedBytes      uint64
	FreeBytes      uint64
}

type SwapCounters struct {
	TotalBytes uint64
	UsedBytes  uint64
	FreeBytes  uint64
}

func (h *Host) VirtualMemory(ctx context.Context) (MemoryCounters, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryCounters{}, fmt.Errorf("virtual memory: %w", err)
	}
	if vm.Total == 0 {
		return MemoryCounters{}, fmt.Errorf("virtual memory: total is zero")
	}
	return MemoryCounters{
		TotalBytes:     vm.Total,
		AvailableBytes: vm.Available,
		UsedBytes:      vm.Used,
		FreeBytes:      vm.Free,
	}, nil
}

func (h *Host) SwapMemory(ctx context.Context) (SwapCounters, error) {
	sw, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return SwapCounters{}, fmt.Errorf("swap memory: %w", err)
	}
	return SwapCounters{TotalBytes: sw.Total, UsedBytes: sw.Used, FreeBytes: sw.Free}, nil
}
