package sampler

import (
	"context"
	"io"
	"log/slog"

	"hostmon-agent/internal/model"
	"hostmon-agent/internal/system"
)

type DiskProbe interface {
	Partitions(ctx context.Context) ([]system.Partition, error)
	Usage(ctx context.Context, mountpoint string) (system.DiskUsage, error)
}

type DiskSampler struct {
	probe  DiskProbe
	logger *slog.Logger
}

func NewDiskSampler(probe DiskProbe, logger *slog.Logger) *DiskSampler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DiskSampler{probe: probe, logger: logger}
}

func (s *DiskSampler) Category() model.Category {
	return model.CategoryDisk
}

// Sample enumerates partitions and reads usage for each. Volumes whose usage
// cannot be read (empty optical drives, stale mounts) are left out.
func (s *DiskSampler) Sample(ctx context.Context) (model.DiskSnapshot, error) {
	parts, err := s.probe.Partitions(ctx)
	if err != nil {
		return model.DiskSnapshot{}, probeFailure(model.CategoryDisk, err)
	}
	disks := make([]model.DiskVolume, 0, len(parts))
	for _, p := range parts {
		usage, usageErr := s.probe.Usage(ctx, p.Mountpoint)
		if usageErr != nil {
			s.logger.Debug("skipping volume", "mountpoint", p.Mountpoint, "device", p.Device, "error", usageErr)
			continue
		}
		disks = append(disks, VolumeFromUsage(p, usage))
	}
	return model.DiskSnapshot{Disks: disks}, nil
}

// VolumeFromUsage derives the used percentage from used/total. Free is kept as
// reported, so used+free may fall short of total by the reserved blocks.
func VolumeFromUsage(p system.Partition, u system.DiskUsage) model.DiskVolume {
	used := min(u.UsedBytes, u.TotalBytes)
	return model.DiskVolume{
		Device:     p.Device,
		Mountpoint: p.Mountpoint,
		FSType:     p.FSType,
		Total:      u.TotalBytes,
		Used:       used,
		Free:       min(u.FreeBytes, u.TotalBytes-used),
		Percent:    percentOf(used, u.TotalBytes),
	}
}
