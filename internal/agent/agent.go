package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hostmon-agent/internal/agent/version"
	"hostmon-agent/internal/api"
	"hostmon-agent/internal/cache"
	"hostmon-agent/internal/collector"
	"hostmon-agent/internal/config"
	"hostmon-agent/internal/libvirt"
	"hostmon-agent/internal/model"
	"hostmon-agent/internal/query"
	"hostmon-agent/internal/sampler"
	"hostmon-agent/internal/stream"
	"hostmon-agent/internal/system"
)

type Agent struct {
	cfg        config.Config
	logger     *slog.Logger
	conn       *libvirt.ConnManager
	scheduler  *collector.Scheduler
	publisher  *collector.Publisher
	sink       stream.Sink
	httpServer *http.Server
	health     *HealthStatus
}

const httpReadHeaderTimeout = 5 * time.Second

func New(cfg config.Config, logger *slog.Logger) (*Agent, error) {
	tlsCfg, err := cfg.TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("tls config: %w", err)
	}

	sink, err := stream.NewSinkFromConfig(cfg, tlsCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("stream sink: %w", err)
	}

	host := system.NewHost()
	var (
		cpuProbe sampler.CPUProbe    = host
		memProbe sampler.MemoryProbe = host
		conn     *libvirt.ConnManager
	)
	if cfg.ProbeBackend == config.ProbeBackendLibvirt {
		conn = libvirt.NewConnManager(cfg.LibvirtURI, cfg.ReconnectInterval, cfg.MaxReconnectJitter, logger)
		node := libvirt.NewNodeProbe(conn, host)
		cpuProbe, memProbe = node, node
	}

	store := cache.NewStore()
	status := collector.NewStatus()
	health := NewHealthStatus(status, conn != nil)

	scheduler := collector.NewScheduler(
		logger,
		store,
		status,
		collector.Samplers{
			CPU:     sampler.NewCPUSampler(cpuProbe, cfg.CPUWindow),
			Memory:  sampler.NewMemorySampler(memProbe),
			Disk:    sampler.NewDiskSampler(host, logger),
			Network: sampler.NewNetworkSampler(host),
		},
		collector.Intervals{
			CPU:     cfg.CPUInterval,
			Memory:  cfg.MemoryInterval,
			Disk:    cfg.DiskInterval,
			Network: cfg.NetworkInterval,
		},
		cfg.CollectorErrorBackoff,
	)

	svc := query.NewService(store)
	handler := api.NewHandler(
		svc,
		status,
		func() *version.GetVersionResponse { return version.Get(cfg) },
		cfg.CORSOrigins,
		shortestInterval(cfg),
		logger,
	)

	a := &Agent{
		cfg:       cfg,
		logger:    logger,
		conn:      conn,
		scheduler: scheduler,
		httpServer: &http.Server{
			Addr:              cfg.HTTPListenAddr,
			Handler:           handler,
			ReadHeaderTimeout: httpReadHeaderTimeout,
		},
		health: health,
	}
	if sink != nil {
		a.sink = &healthSink{sink: sink, health: health}
		a.publisher = collector.NewPublisher(logger, svc, a.sink, cfg.HostID, cfg.PushInterval)
	}
	return a, nil
}

func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("starting hostmon-agent",
		"host_id", a.cfg.HostID,
		"http_addr", a.cfg.HTTPListenAddr,
		"probe_backend", a.cfg.ProbeBackend,
		"stream_mode", a.cfg.StreamMode,
	)
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- a.run(runCtx)
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case runErr = <-runErrCh:
	case sig := <-sigCh:
		a.logger.Info("shutdown signal received, starting graceful shutdown", "signal", sig.String(), "timeout", a.cfg.ShutdownTimeout)
		cancelRun()

		graceTimer := time.NewTimer(a.cfg.ShutdownTimeout)
		defer graceTimer.Stop()

		select {
		case runErr = <-runErrCh:
		case sig2 := <-sigCh:
			a.logger.Warn("second signal received, forcing immediate shutdown", "signal", sig2.String())
			runErr = context.Canceled
		case <-graceTimer.C:
			a.logger.Warn("graceful shutdown timeout reached, forcing shutdown", "timeout", a.cfg.ShutdownTimeout)
			runErr = context.DeadlineExceeded
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancelShutdown()
	a.shutdown(shutdownCtx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	a.logger.Info("hostmon-agent stopped")
	return nil
}

func BuildLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	hOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, hOpts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, hOpts))
}

// shortestInterval is the soonest any slot can change, used as Retry-After.
func shortestInterval(cfg config.Config) time.Duration {
	return min(cfg.CPUInterval, cfg.MemoryInterval, cfg.DiskInterval, cfg.NetworkInterval)
}

type healthSink struct {
	sink   stream.Sink
	health *HealthStatus
}

func (s *healthSink) SendHostMetrics(ctx context.Context, hostID string, m model.CombinedSnapshot) error {
	err := s.sink.SendHostMetrics(ctx, hostID, m)
	if err != nil {
		s.health.SetStreamConnected(false)
		return err
	}
	s.health.SetStreamConnected(true)
	if !m.Timestamp.IsZero() {
		s.health.MarkPublish(m.Timestamp.UTC())
	}
	return nil
}

func (s *healthSink) Close(ctx context.Context) error {
	return s.sink.Close(ctx)
}
