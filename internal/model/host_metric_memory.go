package model

// MemorySnapshot captures physical memory and swap in bytes. Percentages are 0-100.
type MemorySnapshot struct {
	Total       uint64  `json:"memory_total"`
	Available   uint64  `json:"memory_available"`
	Used        uint64  `json:"memory_used"`
	Percent     float64 `json:"memory_percent"`
	SwapTotal   uint64  `json:"swap_total"`
	SwapUsed    uint64  `json:"swap_used"`
	SwapFree    uint64  `json:"swap_free"`
	SwapPercent float64 `json:"swap_percent"`
}
