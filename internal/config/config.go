package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type StreamMode string

const (
	StreamModeNone      StreamMode = "none"
	StreamModeGRPC      StreamMode = "grpc"
	StreamModeWebSocket StreamMode = "websocket"
)

type ProbeBackend string

const (
	ProbeBackendHost    ProbeBackend = "host"
	ProbeBackendLibvirt ProbeBackend = "libvirt"
)

const HardcodedVersion = "V0.1"

type Config struct {
	HostID                string        `yaml:"host_id"`
	Hostname              string        `yaml:"-"`
	HTTPListenAddr        string        `yaml:"http_listen_addr"`
	ProbeListenAddr       string        `yaml:"probe_listen_addr"`
	CORSOrigins           []string      `yaml:"cors_origins"`
	CPUInterval           time.Duration `yaml:"cpu_interval"`
	MemoryInterval        time.Duration `yaml:"memory_interval"`
	DiskInterval          time.Duration `yaml:"disk_interval"`
	NetworkInterval       time.Duration `yaml:"network_interval"`
	CPUWindow             time.Duration `yaml:"cpu_window"`
	CollectorErrorBackoff time.Duration `yaml:"collector_error_backoff"`
	HealthInterval        time.Duration `yaml:"health_interval"`
	ShutdownTimeout       time.Duration `yaml:"shutdown_timeout"`
	ProbeBackend          ProbeBackend  `yaml:"probe_backend"`
	LibvirtURI            string        `yaml:"libvirt_uri"`
	LibvirtCallTimeout    time.Duration `yaml:"libvirt_call_timeout"`
	ReconnectInterval     time.Duration `yaml:"reconnect_interval"`
	MaxReconnectJitter    time.Duration `yaml:"reconnect_max_jitter"`
	StreamMode            StreamMode    `yaml:"stream_mode"`
	PushInterval          time.Duration `yaml:"push_interval"`
	BackendGRPCAddr       string        `yaml:"backend_grpc_addr"`
	GRPCHostStreamMethod  string        `yaml:"grpc_host_stream_method"`
	BackendWSURL          string        `yaml:"backend_ws_url"`
	BackendToken          string        `yaml:"backend_token"`
	WebSocketWriteTimeout time.Duration `yaml:"ws_write_timeout"`
	WebSocketPingInterval time.Duration `yaml:"ws_ping_interval"`
	AgentVersion          string        `yaml:"-"`
	TLSEnabled            bool          `yaml:"tls_enabled"`
	TLSSkipVerify         bool          `yaml:"tls_skip_verify"`
	TLSCAPath             string        `yaml:"tls_ca_path"`
	TLSCertPath           string        `yaml:"tls_cert_path"`
	TLSKeyPath            string        `yaml:"tls_key_path"`
	LogJSON               bool          `yaml:"log_json"`
	LogLevel              string        `yaml:"log_level"`
}

func Default() Config {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}
	return Config{
		HostID:                hostname,
		Hostname:              hostname,
		HTTPListenAddr:        "127.0.0.1:8000",
		ProbeListenAddr:       "127.0.0.1:7443",
		CORSOrigins:           []string{"http://localhost:5173"},
		CPUInterval:           3 * time.Second,
		MemoryInterval:        3 * time.Second,
		DiskInterval:          10 * time.Second,
		NetworkInterval:       2 * time.Second,
		CPUWindow:             1 * time.Second,
		HealthInterval:        10 * time.Second,
		ShutdownTimeout:       20 * time.Second,
		ProbeBackend:          ProbeBackendHost,
		LibvirtURI:            "qemu+unix:///system",
		LibvirtCallTimeout:    5 * time.Second,
		ReconnectInterval:     4 * time.Second,
		MaxReconnectJitter:    900 * time.Millisecond,
		StreamMode:            StreamModeNone,
		PushInterval:          5 * time.Second,
		BackendGRPCAddr:       "127.0.0.1:3001",
		GRPCHostStreamMethod:  "/hostmon.metrics.v1.MetricsService/StreamHostMetrics",
		BackendWSURL:          "ws://127.0.0.1:3001/ws/metrics",
		WebSocketWriteTimeout: 5 * time.Second,
		WebSocketPingInterval: 10 * time.Second,
		AgentVersion:          HardcodedVersion,
		LogJSON:               true,
		LogLevel:              "info",
	}
}

// Load layers defaults, the optional YAML file at path (or HOSTMON_CONFIG_FILE)
// and HOSTMON_* environment variables, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = env("HOSTMON_CONFIG_FILE", "")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HostID = env("HOSTMON_HOST_ID", c.HostID)
	c.HTTPListenAddr = env("HOSTMON_HTTP_ADDR", c.HTTPListenAddr)
	c.ProbeListenAddr = env("HOSTMON_PROBE_ADDR", c.ProbeListenAddr)
	c.CORSOrigins = envList("HOSTMON_CORS_ORIGINS", c.CORSOrigins)
	c.CPUInterval = envDuration("HOSTMON_CPU_INTERVAL", c.CPUInterval)
	c.MemoryInterval = envDuration("HOSTMON_MEMORY_INTERVAL", c.MemoryInterval)
	c.DiskInterval = envDuration("HOSTMON_DISK_INTERVAL", c.DiskInterval)
	c.NetworkInterval = envDuration("HOSTMON_NETWORK_INTERVAL", c.NetworkInterval)
	c.CPUWindow = envDuration("HOSTMON_CPU_WINDOW", c.CPUWindow)
	c.CollectorErrorBackoff = envDuration("HOSTMON_COLLECTOR_ERROR_BACKOFF", c.CollectorErrorBackoff)
	c.HealthInterval = envDuration("HOSTMON_HEALTH_INTERVAL", c.HealthInterval)
	c.ShutdownTimeout = envDuration("HOSTMON_SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.ProbeBackend = ProbeBackend(strings.ToLower(env("HOSTMON_PROBE_BACKEND", string(c.ProbeBackend))))
	c.LibvirtURI = env("HOSTMON_LIBVIRT_URI", c.LibvirtURI)
	c.LibvirtCallTimeout = envDuration("HOSTMON_LIBVIRT_CALL_TIMEOUT", c.LibvirtCallTimeout)
	c.ReconnectInterval = envDuration("HOSTMON_RECONNECT_INTERVAL", c.ReconnectInterval)
	c.MaxReconnectJitter = envDuration("HOSTMON_RECONNECT_MAX_JITTER", c.MaxReconnectJitter)
	c.StreamMode = StreamMode(strings.ToLower(env("HOSTMON_STREAM_MODE", string(c.StreamMode))))
	c.PushInterval = envDuration("HOSTMON_PUSH_INTERVAL", c.PushInterval)
	c.BackendGRPCAddr = env("HOSTMON_BACKEND_GRPC_ADDR", c.BackendGRPCAddr)
	c.GRPCHostStreamMethod = env("HOSTMON_GRPC_HOST_STREAM_METHOD", c.GRPCHostStreamMethod)
	c.BackendWSURL = env("HOSTMON_BACKEND_WS_URL", c.BackendWSURL)
	c.BackendToken = env("HOSTMON_BACKEND_TOKEN", c.BackendToken)
	c.WebSocketWriteTimeout = envDuration("HOSTMON_WS_WRITE_TIMEOUT", c.WebSocketWriteTimeout)
	c.WebSocketPingInterval = envDuration("HOSTMON_WS_PING_INTERVAL", c.WebSocketPingInterval)
	c.TLSEnabled = envBool("HOSTMON_TLS_ENABLED", c.TLSEnabled)
	c.TLSSkipVerify = envBool("HOSTMON_TLS_SKIP_VERIFY", c.TLSSkipVerify)
	c.TLSCAPath = env("HOSTMON_TLS_CA_PATH", c.TLSCAPath)
	c.TLSCertPath = env("HOSTMON_TLS_CERT_PATH", c.TLSCertPath)
	c.TLSKeyPath = env("HOSTMON_TLS_KEY_PATH", c.TLSKeyPath)
	c.LogJSON = envBool("HOSTMON_LOG_JSON", c.LogJSON)
	c.LogLevel = strings.ToLower(env("HOSTMON_LOG_LEVEL", c.LogLevel))
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.HostID) == "" {
		return errors.New("HOSTMON_HOST_ID is required")
	}
	if strings.TrimSpace(c.AgentVersion) == "" {
		return errors.New("agent version must not be empty")
	}
	if strings.TrimSpace(c.HTTPListenAddr) == "" {
		return errors.New("HOSTMON_HTTP_ADDR is required")
	}
	if strings.TrimSpace(c.ProbeListenAddr) == "" {
		return errors.New("HOSTMON_PROBE_ADDR is required")
	}
	if c.CPUInterval <= 0 || c.MemoryInterval <= 0 || c.DiskInterval <= 0 || c.NetworkInterval <= 0 {
		return errors.New("sampling intervals must be > 0")
	}
	if c.CPUWindow < 0 {
		return errors.New("HOSTMON_CPU_WINDOW must be >= 0")
	}
	if c.CPUWindow >= c.CPUInterval {
		return fmt.Errorf("HOSTMON_CPU_WINDOW (%s) must be shorter than HOSTMON_CPU_INTERVAL (%s)", c.CPUWindow, c.CPUInterval)
	}
	if c.HealthInterval <= 0 {
		return errors.New("HOSTMON_HEALTH_INTERVAL must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("HOSTMON_SHUTDOWN_TIMEOUT must be > 0")
	}
	switch c.ProbeBackend {
	case ProbeBackendHost:
	case ProbeBackendLibvirt:
		if strings.TrimSpace(c.LibvirtURI) == "" {
			return errors.New("HOSTMON_LIBVIRT_URI is required for libvirt backend")
		}
	default:
		return fmt.Errorf("unsupported probe backend %q", c.ProbeBackend)
	}
	switch c.StreamMode {
	case StreamModeNone:
	case StreamModeGRPC:
		if c.BackendGRPCAddr == "" {
			return errors.New("HOSTMON_BACKEND_GRPC_ADDR is required for grpc mode")
		}
		if strings.TrimSpace(c.GRPCHostStreamMethod) == "" {
			return errors.New("HOSTMON_GRPC_HOST_STREAM_METHOD is required for grpc mode")
		}
	case StreamModeWebSocket:
		if c.BackendWSURL == "" {
			return errors.New("HOSTMON_BACKEND_WS_URL is required for websocket mode")
		}
	default:
		return fmt.Errorf("unsupported stream mode %q", c.StreamMode)
	}
	if c.StreamMode != StreamModeNone && c.PushInterval <= 0 {
		return errors.New("HOSTMON_PUSH_INTERVAL must be > 0")
	}
	return nil
}

func (c Config) TLSConfig() (*tls.Config, error) {
	if !c.TLSEnabled {
		return nil, nil
	}
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: c.TLSSkipVerify}
	if c.TLSCAPath != "" {
		caBytes, err := os.ReadFile(c.TLSCAPath)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, errors.New("append CA cert failed")
		}
		tlsCfg.RootCAs = pool
	}
	if c.TLSCertPath != "" || c.TLSKeyPath != "" {
		if c.TLSCertPath == "" || c.TLSKeyPath == "" {
			return nil, errors.New("both TLS cert and key are required")
		}
		crt, err := tls.LoadX509KeyPair(c.TLSCertPath, c.TLSKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load mTLS cert/key: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{crt}
	}
	return tlsCfg, nil
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envList(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
