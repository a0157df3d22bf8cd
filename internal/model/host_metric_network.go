package model

// NetworkSnapshot holds cumulative interface counters summed over all NICs.
// Values are raw counters since boot, not rates.
type NetworkSnapshot struct {
	BytesSent   uint64 `json:"bytes_sent"`
	BytesRecv   uint64 `json:"bytes_recv"`
	PacketsSent uint64 `json:"packets_sent"`
	PacketsRecv uint64 `json:"packets_recv"`
}
