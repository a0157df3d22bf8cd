package sampler

import (
	"context"
	"errors"

	"hostmon-agent/internal/system"
)

var errProbe = errors.New("permission denied")

type fakeCPUProbe struct {
	readings [][]system.CPUTimes
	freqs    []system.CPUFreq
	timesErr error
	freqErr  error
	calls    int
}

func (f *fakeCPUProbe) CPUTimes(context.Context) ([]system.CPUTimes, error) {
	if f.timesErr != nil {
		return nil, f.timesErr
	}
	r := f.readings[min(f.calls, len(f.readings)-1)]
	f.calls++
	return r, nil
}

func (f *fakeCPUProbe) CPUFrequencies(context.Context) ([]system.CPUFreq, error) {
	return f.freqs, f.freqErr
}

type fakeMemoryProbe struct {
	vm  system.MemoryCounters
	sw  system.SwapCounters
	err error
}

func (f fakeMemoryProbe) VirtualMemory(context.Context) (system.MemoryCounters, error) {
	return f.vm, f.err
}

func (f fakeMemoryProbe) SwapMemory(context.Context) (system.SwapCounters, error) {
	return f.sw, nil
}

type fakeDiskProbe struct {
	parts    []system.Partition
	usage    map[string]system.DiskUsage
	partsErr error
}

func (f fakeDiskProbe) Partitions(context.Context) ([]system.Partition, error) {
	return f.parts, f.partsErr
}

func (f fakeDiskProbe) Usage(_ context.Context, mountpoint string) (system.DiskUsage, error) {
	u, ok := f.usage[mountpoint]
	if !ok {
		return system.DiskUsage{}, errors.New("no medium found")
	}
	return u, nil
}

type fakeNetworkProbe struct {
	c   system.NetCounters
	err error
}

func (f fakeNetworkProbe) NetCounters(context.Context) (system.NetCounters, error) {
	return f.c, f.err
}
