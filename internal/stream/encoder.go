package stream

import (
	"context"
	"encoding/json"

	"hostmon-agent/internal/model"
)

// Sink forwards combined snapshots to a remote collector.
type Sink interface {
	SendHostMetrics(ctx context.Context, hostID string, m model.CombinedSnapshot) error
	Close(ctx context.Context) error
}

type HostFrame struct {
	HostID        string                 `json:"host_id"`
	TimestampUnix int64                  `json:"timestamp_unix"`
	Metrics       model.CombinedSnapshot `json:"metrics"`
}

func EncodeEnvelope(e model.Envelope) ([]byte, error) {
	return json.Marshal(e)
}

func NewHostFrame(hostID string, m model.CombinedSnapshot) HostFrame {
	return HostFrame{HostID: hostID, TimestampUnix: m.Timestamp.UTC().Unix(), Metrics: m}
}

func NewHostEnvelope(hostID string, m model.CombinedSnapshot) model.Envelope {
	frame := NewHostFrame(hostID, m)
	return model.Envelope{Type: model.MetricTypeHost, HostID: hostID, TimestampUnix: frame.TimestampUnix, Payload: frame}
}
