package version

import (
	"time"

	"hostmon-agent/internal/config"
)

func Get(cfg config.Config) *GetVersionResponse {
	return &GetVersionResponse{
		HostID:          cfg.HostID,
		AgentVersion:    cfg.AgentVersion,
		StreamMode:      string(cfg.StreamMode),
		ProbeBackend:    string(cfg.ProbeBackend),
		HTTPListenAddr:  cfg.HTTPListenAddr,
		ProbeListenAddr: cfg.ProbeListenAddr,
		CheckedAtUnix:   time.Now().UTC().Unix(),
	}
}
