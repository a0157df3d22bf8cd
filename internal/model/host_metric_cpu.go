package model

import "slices"

// CPUSnapshot is one CPU measurement. Frequencies are in MHz.
type CPUSnapshot struct {
	PerCore     []float64 `json:"cpu_per_core"`
	FreqCurrent float64   `json:"cpu_freq_current"`
	FreqMin     float64   `json:"cpu_freq_min"`
	FreqMax     float64   `json:"cpu_freq_max"`
	Count       int       `json:"cpu_count"`
}

func (s CPUSnapshot) Clone() CPUSnapshot {
	s.PerCore = slices.Clone(s.PerCore)
	return s
}
