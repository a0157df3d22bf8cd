package agent

import (
	"sync/atomic"
	"time"

	"hostmon-agent/internal/collector"
)

// HealthStatus joins connection state with the scheduler's per-category status.
type HealthStatus struct {
	categories       *collector.Status
	trackLibvirt     bool
	libvirtConnected atomic.Bool
	streamConnected  atomic.Bool
	lastPublishAt    atomic.Int64
}

func NewHealthStatus(categories *collector.Status, trackLibvirt bool) *HealthStatus {
	return &HealthStatus{categories: categories, trackLibvirt: trackLibvirt}
}

func (h *HealthStatus) SetLibvirtConnected(ok bool) {
	h.libvirtConnected.Store(ok)
}

func (h *HealthStatus) SetStreamConnected(ok bool) {
	h.streamConnected.Store(ok)
}

func (h *HealthStatus) MarkPublish(ts time.Time) {
	h.lastPublishAt.Store(ts.UnixNano())
}

// Degraded is true when a category's latest refresh failed or a tracked
// libvirt connection is down.
func (h *HealthStatus) Degraded() bool {
	if h.trackLibvirt && !h.libvirtConnected.Load() {
		return true
	}
	return h.categories.Degraded()
}

func (h *HealthStatus) Snapshot() map[string]any {
	out := map[string]any{
		"stream_connected": h.streamConnected.Load(),
		"degraded":         h.Degraded(),
		"categories":       h.categories.Snapshot(),
	}
	if h.trackLibvirt {
		out["libvirt_connected"] = h.libvirtConnected.Load()
	}
	if v := h.lastPublishAt.Load(); v > 0 {
		out["last_publish_at"] = time.Unix(0, v).UTC()
	}
	return out
}
