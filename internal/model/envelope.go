package model

type MetricType string

const (
	MetricTypeHost MetricType = "host_metrics"
)

// Envelope is transport-agnostic framing for stream payloads.
type Envelope struct {
	Type          MetricType `json:"type"`
	HostID        string     `json:"host_id"`
	TimestampUnix int64      `json:"timestamp_unix"`
	Payload       any        `json:"payload"`
}
