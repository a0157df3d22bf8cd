// Package system exposes raw host counters. Nothing here derives percentages.
package system

// Host reads counters from the local machine through gopsutil.
type Host struct {
	sysRoot string
}

func NewHost() *Host {
	return &Host{sysRoot: "/sys"}
}
