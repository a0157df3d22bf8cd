package model

import (
	"encoding/json"
	"time"
)

// CombinedSnapshot joins the latest value of every category. Timestamp is the
// composition time, not the capture time of any sub-snapshot.
type CombinedSnapshot struct {
	Timestamp time.Time       `json:"-"`
	CPU       CPUSnapshot     `json:"cpu"`
	Memory    MemorySnapshot  `json:"memory"`
	Disk      DiskSnapshot    `json:"disk"`
	Network   NetworkSnapshot `json:"network"`
}

// MarshalJSON encodes the timestamp as fractional unix seconds.
func (s CombinedSnapshot) MarshalJSON() ([]byte, error) {
	type alias CombinedSnapshot
	return json.Marshal(struct {
		Timestamp float64 `json:"timestamp"`
		alias
	}{
		Timestamp: UnixSeconds(s.Timestamp),
		alias:     alias(s),
	})
}

func UnixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}
