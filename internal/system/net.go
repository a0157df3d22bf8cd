package system

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/net"
)

type NetCounters struct {
	BytesSent   uint64
	BytesRecv   uint64
	PacketsSent uint64
	PacketsRecv uint64
}

// NetCounters sums every interface, loopback included, as psutil does.
func (h *Host) NetCounters(ctx context.Context) (NetCounters, error) {
	stats, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return NetCounters{}, fmt.Errorf("net io counters: %w", err)
	}
	if len(stats) == 0 {
		return NetCounters{}, fmt.Errorf("net io counters: no interfaces reported")
	}
	st := stats[0]
	return NetCounters{
		BytesSent:   st.BytesSent,
		BytesRecv:   st.BytesRecv,
		PacketsSent: st.PacketsSent,
		PacketsRecv: st.PacketsRecv,
	}, nil
}
