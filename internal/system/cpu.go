package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
)

// CPUTimes are cumulative per-CPU jiffies converted to seconds.
type CPUTimes struct {
	User    float64
	Nice    float64
	System  float64
	Idle    float64
	IOWait  float64
	IRQ     float64
	SoftIRQ float64
	Steal   float64
}

func (t CPUTimes) Total() float64 {
	return t.User + t.Nice + t.System + t.Idle + t.IOWait + t.IRQ + t.SoftIRQ + t.Steal
}

// Idled is time spent not executing anything, iowait included.
func (t CPUTimes) Idled() float64 {
	return t.Idle + t.IOWait
}

// CPUFreq is one logical CPU's frequency reading in MHz. Zero means unknown.
type CPUFreq struct {
	CurrentMHz float64
	MinMHz     float64
	MaxMHz     float64
}

// CPUTimes returns one entry per logical CPU.
func (h *Host) CPUTimes(ctx context.Context) ([]CPUTimes, error) {
	stats, err := cpu.TimesWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("cpu times: %w", err)
	}
	if len(stats) == 0 {
		return nil, fmt.Errorf("cpu times: no cpus reported")
	}
	out := make([]CPUTimes, 0, len(stats))
	for _, st := range stats {
		out = append(out, CPUTimes{
			User:    st.User,
			Nice:    st.Nice,
			System:  st.System,
			Idle:    st.Idle,
			IOWait:  st.Iowait,
			IRQ:     st.Irq,
			SoftIRQ: st.Softirq,
			Steal:   st.Steal,
		})
	}
	return out, nil
}

// CPUFrequencies reads cpufreq sysfs and falls back to the model MHz reported by cpu.Info.
func (h *Host) CPUFrequencies(ctx context.Context) ([]CPUFreq, error) {
	if freqs := h.readSysfsFrequencies(); len(freqs) > 0 {
		return freqs, nil
	}
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("cpu info: %w", err)
	}
	out := make([]CPUFreq, 0, len(infos))
	for _, info := range infos {
		if info.Mhz <= 0 {
			continue
		}
		out = append(out, CPUFreq{CurrentMHz: info.Mhz, MaxMHz: info.Mhz})
	}
	return out, nil
}

func (h *Host) readSysfsFrequencies() []CPUFreq {
	dirs, _ := filepath.Glob(filepath.Join(h.sysRoot, "devices/system/cpu/cpu[0-9]*/cpufreq"))
	out := make([]CPUFreq, 0, len(dirs))
	for _, dir := range dirs {
		cur := readKHzAsMHz(filepath.Join(dir, "scaling_cur_freq"))
		if cur == 0 {
			continue
		}
		out = append(out, CPUFreq{
			CurrentMHz: cur,
			MinMHz:     readKHzAsMHz(filepath.Join(dir, "scaling_min_freq")),
			MaxMHz:     readKHzAsMHz(filepath.Join(dir, "scaling_max_freq")),
		})
	}
	return out
}

func readKHzAsMHz(path string) float64 {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil || v <= 0 {
		return 0
	}
	return v / 1000
}
