package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOSTMON_CONFIG_FILE", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CPUInterval != 3*time.Second || cfg.MemoryInterval != 3*time.Second ||
		cfg.DiskInterval != 10*time.Second || cfg.NetworkInterval != 2*time.Second {
		t.Fatalf("unexpected default intervals: %+v", cfg)
	}
	if cfg.StreamMode != StreamModeNone || cfg.ProbeBackend != ProbeBackendHost {
		t.Fatalf("unexpected defaults: stream=%s backend=%s", cfg.StreamMode, cfg.ProbeBackend)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hostmon.yaml")
	body := strings.Join([]string{
		"host_id: rack-7",
		"disk_interval: 30s",
		"network_interval: 1s",
		"cors_origins: [\"http://a.example\", \"http://b.example\"]",
		"stream_mode: websocket",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOSTMON_NETWORK_INTERVAL", "500ms")
	t.Setenv("HOSTMON_LOG_LEVEL", "DEBUG")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HostID != "rack-7" {
		t.Fatalf("host id = %q", cfg.HostID)
	}
	if cfg.DiskInterval != 30*time.Second {
		t.Fatalf("disk interval = %s", cfg.DiskInterval)
	}
	if cfg.NetworkInterval != 500*time.Millisecond {
		t.Fatalf("env should override file, got %s", cfg.NetworkInterval)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.example" {
		t.Fatalf("cors origins = %v", cfg.CORSOrigins)
	}
	if cfg.StreamMode != StreamModeWebSocket || cfg.LogLevel != "debug" {
		t.Fatalf("stream=%s level=%s", cfg.StreamMode, cfg.LogLevel)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero interval", func(c *Config) { c.DiskInterval = 0 }},
		{"window longer than interval", func(c *Config) { c.CPUWindow = c.CPUInterval }},
		{"unknown backend", func(c *Config) { c.ProbeBackend = "wmi" }},
		{"unknown stream mode", func(c *Config) { c.StreamMode = "kafka" }},
		{"grpc without method", func(c *Config) { c.StreamMode = StreamModeGRPC; c.GRPCHostStreamMethod = " " }},
		{"empty http addr", func(c *Config) { c.HTTPListenAddr = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestEnvList(t *testing.T) {
	t.Setenv("HOSTMON_CORS_ORIGINS", " http://x , ,http://y")
	got := envList("HOSTMON_CORS_ORIGINS", nil)
	if len(got) != 2 || got[0] != "http://x" || got[1] != "http://y" {
		t.Fatalf("got %v", got)
	}
}
