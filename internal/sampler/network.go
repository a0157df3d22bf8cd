package sampler

import (
	"context"

	"hostmon-agent/internal/model"
	"hostmon-agent/internal/system"
)

type NetworkProbe interface {
	NetCounters(ctx context.Context) (system.NetCounters, error)
}

type NetworkSampler struct {
	probe NetworkProbe
}

func NewNetworkSampler(probe NetworkProbe) *NetworkSampler {
	return &NetworkSampler{probe: probe}
}

func (s *NetworkSampler) Category() model.Category {
	return model.CategoryNetwork
}

func (s *NetworkSampler) Sample(ctx context.Context) (model.NetworkSnapshot, error) {
	c, err := s.probe.NetCounters(ctx)
	if err != nil {
		return model.NetworkSnapshot{}, probeFailure(model.CategoryNetwork, err)
	}
	return model.NetworkSnapshot{
		BytesSent:   c.BytesSent,
		BytesRecv:   c.BytesRecv,
		PacketsSent: c.PacketsSent,
		PacketsRecv: c.PacketsRecv,
	}, nil
}
