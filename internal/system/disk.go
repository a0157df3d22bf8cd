package system

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

type Partition struct {
	Device     string
	Mountpoint string
	FSType     string
}

type DiskUsage struct {
	TotalBytes uint64
	UsedBytes  uint64
	FreeBytes  uint64
}

// Partitions lists physical mounts only, like psutil's default listing.
func (h *Host) Partitions(ctx context.Context) ([]Partition, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("disk partitions: %w", err)
	}
	out := make([]Partition, 0, len(parts))
	for _, p := range parts {
		out = append(out, Partition{Device: p.Device, Mountpoint: p.Mountpoint, FSType: p.Fstype})
	}
	return out, nil
}

func (h *Host) Usage(ctx context.Context, mountpoint string) (DiskUsage, error) {
	u, err := disk.UsageWithContext(ctx, mountpoint)
	if err != nil {
		return DiskUsage{}, fmt.Errorf("disk usage %s: %w", mountpoint, err)
	}
	return DiskUsage{TotalBytes: u.Total, UsedBytes: u.Used, FreeBytes: u.Free}, nil
}
