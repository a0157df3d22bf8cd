package sampler

import (
	"context"
	"fmt"
	"time"

	"hostmon-agent/internal/model"
	"hostmon-agent/internal/system"
)

type CPUProbe interface {
	CPUTimes(ctx context.Context) ([]system.CPUTimes, error)
	CPUFrequencies(ctx context.Context) ([]system.CPUFreq, error)
}

// CPUSampler measures per-core utilization over a fixed window between two
// time readings.
type CPUSampler struct {
	probe  CPUProbe
	window time.Duration
}

func NewCPUSampler(probe CPUProbe, window time.Duration) *CPUSampler {
	if window < 0 {
		window = 0
	}
	return &CPUSampler{probe: probe, window: window}
}

func (s *CPUSampler) Category() model.Category {
	return model.CategoryCPU
}

func (s *CPUSampler) Sample(ctx context.Context) (model.CPUSnapshot, error) {
	before, err := s.probe.CPUTimes(ctx)
	if err != nil {
		return model.CPUSnapshot{}, probeFailure(model.CategoryCPU, err)
	}
	if err := wait(ctx, s.window); err != nil {
		return model.CPUSnapshot{}, probeFailure(model.CategoryCPU, err)
	}
	after, err := s.probe.CPUTimes(ctx)
	if err != nil {
		return model.CPUSnapshot{}, probeFailure(model.CategoryCPU, err)
	}
	perCore, err := CorePercents(before, after)
	if err != nil {
		return model.CPUSnapshot{}, probeFailure(model.CategoryCPU, err)
	}
	freqs, err := s.probe.CPUFrequencies(ctx)
	if err != nil {
		return model.CPUSnapshot{}, probeFailure(model.CategoryCPU, err)
	}
	cur, lo, hi := FrequencyBounds(freqs)

	return model.CPUSnapshot{
		PerCore:     perCore,
		FreqCurrent: cur,
		FreqMin:     lo,
		FreqMax:     hi,
		Count:       len(perCore),
	}, nil
}

// CorePercents derives busy percent per logical CPU from two time readings.
// Iowait counts as idle. Values are rounded to one decimal.
func CorePercents(prev, cur []system.CPUTimes) ([]float64, error) {
	if len(prev) != len(cur) {
		return nil, fmt.Errorf("cpu count changed between readings: %d -> %d", len(prev), len(cur))
	}
	out := make([]float64, len(cur))
	for i := range cur {
		totalDelta := cur[i].Total() - prev[i].Total()
		if totalDelta <= 0 {
			continue
		}
		idleDelta := cur[i].Idled() - prev[i].Idled()
		if idleDelta < 0 {
			idleDelta = 0
		}
		out[i] = round(clampPercent((1-idleDelta/totalDelta)*100), 1)
	}
	return out, nil
}

// FrequencyBounds summarizes per-CPU readings: mean current, lowest min and
// highest max, in MHz rounded to two decimals. Unknown bounds fall back to the
// observed current range.
func FrequencyBounds(freqs []system.CPUFreq) (current, minMHz, maxMHz float64) {
	if len(freqs) == 0 {
		return 0, 0, 0
	}
	var sum, curLo, curHi float64
	for i, f := range freqs {
		sum += f.CurrentMHz
		if i == 0 || f.CurrentMHz < curLo {
			curLo = f.CurrentMHz
		}
		if f.CurrentMHz > curHi {
			curHi = f.CurrentMHz
		}
		if f.MinMHz > 0 && (minMHz == 0 || f.MinMHz < minMHz) {
			minMHz = f.MinMHz
		}
		if f.MaxMHz > maxMHz {
			maxMHz = f.MaxMHz
		}
	}
	current = sum / float64(len(freqs))
	if minMHz == 0 {
		minMHz = curLo
	}
	if maxMHz == 0 {
		maxMHz = curHi
	}
	if maxMHz < minMHz {
		maxMHz = minMHz
	}
	return round(current, 2), round(minMHz, 2), round(maxMHz, 2)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
