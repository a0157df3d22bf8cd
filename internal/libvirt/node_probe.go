package libvirt

import (
	"context"
	"fmt"
	"strings"

	golibvirt "github.com/digitalocean/go-libvirt"

	"hostmon-agent/internal/system"
)

type SwapReader interface {
	SwapMemory(ctx context.Context) (system.SwapCounters, error)
}

// NodeProbe reads CPU and memory counters of the hypervisor node behind a
// libvirt connection. libvirt has no node-level swap figures, so swap comes
// from the SwapReader.
type NodeProbe struct {
	conn *ConnManager
	swap SwapReader
}

func NewNodeProbe(conn *ConnManager, swap SwapReader) *NodeProbe {
	return &NodeProbe{conn: conn, swap: swap}
}

func (p *NodeProbe) CPUTimes(ctx context.Context) ([]system.CPUTimes, error) {
	client, err := p.conn.Client()
	if err != nil {
		return nil, err
	}
	_, _, cpus, _, _, _, _, _, err := client.NodeGetInfo()
	if err != nil {
		p.conn.Invalidate()
		return nil, fmt.Errorf("NodeGetInfo: %w", err)
	}
	if cpus <= 0 {
		return nil, fmt.Errorf("NodeGetInfo reported %d cpus", cpus)
	}
	out := make([]system.CPUTimes, 0, cpus)
	for i := int32(0); i < cpus; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields, statErr := nodeCPUStats(client, i)
		if statErr != nil {
			p.conn.Invalidate()
			return nil, statErr
		}
		out = append(out, cpuTimesFromFields(fields))
	}
	return out, nil
}

// CPUFrequencies reports the node's nominal MHz for every CPU; libvirt exposes
// no per-CPU scaling bounds.
func (p *NodeProbe) CPUFrequencies(_ context.Context) ([]system.CPUFreq, error) {
	client, err := p.conn.Client()
	if err != nil {
		return nil, err
	}
	_, _, cpus, mhz, _, _, _, _, err := client.NodeGetInfo()
	if err != nil {
		p.conn.Invalidate()
		return nil, fmt.Errorf("NodeGetInfo: %w", err)
	}
	out := make([]system.CPUFreq, cpus)
	for i := range out {
		out[i] = system.CPUFreq{CurrentMHz: float64(mhz)}
	}
	return out, nil
}

func (p *NodeProbe) VirtualMemory(_ context.Context) (system.MemoryCounters, error) {
	client, err := p.conn.Client()
	if err != nil {
		return system.MemoryCounters{}, err
	}
	_, n, err := client.NodeGetMemoryStats(0, -1, 0)
	if err != nil {
		p.conn.Invalidate()
		return system.MemoryCounters{}, fmt.Errorf("NodeGetMemoryStats: %w", err)
	}
	stats, _, err := client.NodeGetMemoryStats(n, -1, 0)
	if err != nil {
		p.conn.Invalidate()
		return system.MemoryCounters{}, fmt.Errorf("NodeGetMemoryStats: %w", err)
	}
	vals := make(map[string]uint64, len(stats))
	for _, st := range stats {
		vals[strings.ToLower(st.Field)] = st.Value
	}
	return memoryFromFields(vals)
}

func (p *NodeProbe) SwapMemory(ctx context.Context) (system.SwapCounters, error) {
	return p.swap.SwapMemory(ctx)
}

func nodeCPUStats(client *golibvirt.Libvirt, cpu int32) (map[string]uint64, error) {
	_, n, err := client.NodeGetCPUStats(cpu, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("NodeGetCPUStats cpu %d: %w", cpu, err)
	}
	if n <= 0 {
		return nil, fmt.Errorf("NodeGetCPUStats cpu %d: no fields", cpu)
	}
	stats, _, err := client.NodeGetCPUStats(cpu, n, 0)
	if err != nil {
		return nil, fmt.Errorf("NodeGetCPUStats cpu %d: %w", cpu, err)
	}
	vals := make(map[string]uint64, len(stats))
	for _, st := range stats {
		vals[strings.ToLower(st.Field)] = st.Value
	}
	return vals, nil
}

// cpuTimesFromFields converts libvirt's nanosecond counters to seconds.
func cpuTimesFromFields(v map[string]uint64) system.CPUTimes {
	const ns = 1e9
	return system.CPUTimes{
		User:   float64(v["user"]) / ns,
		System: float64(v["kernel"]) / ns,
		Idle:   float64(v["idle"]) / ns,
		IOWait: float64(v["iowait"]) / ns,
	}
}

// memoryFromFields converts KiB fields. Used excludes buffers and page cache.
func memoryFromFields(v map[string]uint64) (system.MemoryCounters, error) {
	total := v["total"] * 1024
	free := v["free"] * 1024
	reclaimable := (v["buffers"] + v["cached"]) * 1024
	if total == 0 {
		return system.MemoryCounters{}, fmt.Errorf("node memory total is zero")
	}
	used := total
	if free+reclaimable <= total {
		used = total - free - reclaimable
	}
	return system.MemoryCounters{
		TotalBytes:     total,
		AvailableBytes: min(free+reclaimable, total),
		UsedBytes:      used,
		FreeBytes:      free,
	}, nil
}
