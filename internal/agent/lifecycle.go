package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

func (a *Agent) run(ctx context.Context) error {
	if a.conn != nil {
		a.connectLibvirt(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})
	g.Go(func() error {
		return a.runHTTPServer(gctx)
	})
	g.Go(func() error {
		return a.runHealthLoop(gctx)
	})
	g.Go(func() error {
		return a.runProbeListener(gctx)
	})
	if a.publisher != nil {
		g.Go(func() error {
			return a.publisher.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// connectLibvirt makes one bounded attempt; failures are left to the health
// loop so the host-backed categories still start.
func (a *Agent) connectLibvirt(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, a.cfg.LibvirtCallTimeout)
	defer cancel()
	if err := a.conn.Connect(cctx); err != nil {
		a.logger.Warn("initial libvirt connect failed, will retry", "error", err)
		a.health.SetLibvirtConnected(false)
		return
	}
	a.health.SetLibvirtConnected(true)
}

func (a *Agent) runHTTPServer(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", a.httpServer.Addr, err)
	}
	a.logger.Info("http api listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http serve: %w", err)
	}
}

func (a *Agent) runHealthLoop(ctx context.Context) error {
	t := time.NewTicker(a.cfg.HealthInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if a.conn == nil {
				a.logHealth("ok")
				continue
			}
			if err := a.conn.Healthy(); err != nil {
				a.logger.Warn("libvirt health check failed, reconnecting", "error", err)
				a.health.SetLibvirtConnected(false)
				rctx, cancel := context.WithTimeout(ctx, a.cfg.LibvirtCallTimeout)
				recErr := a.conn.Reconnect(rctx)
				cancel()
				if recErr != nil {
					a.logger.Error("libvirt reconnect failed", "error", recErr)
					continue
				}
				a.health.SetLibvirtConnected(true)
				a.logHealth("recovered")
			} else {
				a.health.SetLibvirtConnected(true)
				a.logHealth("ok")
			}
		}
	}
}

func (a *Agent) logHealth(status string) {
	a.logger.Log(context.Background(), slog.LevelDebug, "agent health", "status", status, "snapshot", a.health.Snapshot())
}

func (a *Agent) shutdown(ctx context.Context) {
	if a.sink != nil {
		if err := a.sink.Close(ctx); err != nil {
			a.logger.Warn("stream sink close failed", "error", err)
		}
		a.health.SetStreamConnected(false)
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Warn("libvirt close failed", "error", err)
		}
		a.health.SetLibvirtConnected(false)
	}
}
