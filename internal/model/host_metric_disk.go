package model

import "slices"

type DiskVolume struct {
	Device     string  `json:"device"`
	Mountpoint string  `json:"mountpoint"`
	FSType     string  `json:"fstype"`
	Total      uint64  `json:"total"`
	Used       uint64  `json:"used"`
	Free       uint64  `json:"free"`
	Percent    float64 `json:"percent"`
}

// DiskSnapshot lists mounted volumes in enumeration order.
type DiskSnapshot struct {
	Disks []DiskVolume `json:"disks"`
}

func (s DiskSnapshot) Clone() DiskSnapshot {
	s.Disks = slices.Clone(s.Disks)
	return s
}
