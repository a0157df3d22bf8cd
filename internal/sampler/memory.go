package sampler

import (
	"context"

	"hostmon-agent/internal/model"
	"hostmon-agent/internal/system"
)

type MemoryProbe interface {
	VirtualMemory(ctx context.Context) (system.MemoryCounters, error)
	SwapMemory(ctx context.Context) (system.SwapCounters, error)
}

type MemorySampler struct {
	probe MemoryProbe
}

func NewMemorySampler(probe MemoryProbe) *MemorySampler {
	return &MemorySampler{probe: probe}
}

func (s *MemorySampler) Category() model.Category {
	return model.CategoryMemory
}

func (s *MemorySampler) Sample(ctx context.Context) (model.MemorySnapshot, error) {
	vm, err := s.probe.VirtualMemory(ctx)
	if err != nil {
		return model.MemorySnapshot{}, probeFailure(model.CategoryMemory, err)
	}
	sw, err := s.probe.SwapMemory(ctx)
	if err != nil {
		return model.MemorySnapshot{}, probeFailure(model.CategoryMemory, err)
	}
	return MemoryFromCounters(vm, sw), nil
}

// MemoryFromCounters clamps used values to their totals and recomputes both
// percentages from the absolute byte counts.
func MemoryFromCounters(vm system.MemoryCounters, sw system.SwapCounters) model.MemorySnapshot {
	used := min(vm.UsedBytes, vm.TotalBytes)
	available := min(vm.AvailableBytes, vm.TotalBytes)
	swapUsed := min(sw.UsedBytes, sw.TotalBytes)
	swapFree := min(sw.FreeBytes, sw.TotalBytes-swapUsed)

	return model.MemorySnapshot{
		Total:       vm.TotalBytes,
		Available:   available,
		Used:        used,
		Percent:     percentOf(used, vm.TotalBytes),
		SwapTotal:   sw.TotalBytes,
		SwapUsed:    swapUsed,
		SwapFree:    swapFree,
		SwapPercent: percentOf(swapUsed, sw.TotalBytes),
	}
}
