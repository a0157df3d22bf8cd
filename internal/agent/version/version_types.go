package version

type GetVersionResponse struct {
	HostID          string `json:"host_id"`
	AgentVersion    string `json:"agent_version"`
	StreamMode      string `json:"stream_mode"`
	ProbeBackend    string `json:"probe_backend"`
	HTTPListenAddr  string `json:"http_listen_addr"`
	ProbeListenAddr string `json:"probe_listen_addr"`
	CheckedAtUnix   int64  `json:"checked_at_unix"`
}
