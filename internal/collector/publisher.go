package collector

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hostmon-agent/internal/model"
	"hostmon-agent/internal/query"
	"hostmon-agent/internal/stream"
)

type CombinedSource interface {
	Combined() (model.CombinedSnapshot, error)
}

// Publisher pushes the aggregate to a remote sink on its own cadence. It reads
// cached values only, exactly like an HTTP client would.
type Publisher struct {
	logger    *slog.Logger
	source    CombinedSource
	sink      stream.Sink
	hostID    string
	interval  time.Duration
	newTicker func(time.Duration) Ticker
}

func NewPublisher(logger *slog.Logger, source CombinedSource, sink stream.Sink, hostID string, interval time.Duration) *Publisher {
	return &Publisher{
		logger:    logger,
		source:    source,
		sink:      sink,
		hostID:    hostID,
		interval:  interval,
		newTicker: newRealTicker,
	}
}

func (p *Publisher) Run(ctx context.Context) error {
	ticker := p.newTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			if err := p.publishOnce(ctx); err != nil {
				p.logger.Error("publish host metrics failed", "error", err)
			}
		}
	}
}

func (p *Publisher) publishOnce(ctx context.Context) error {
	snap, err := p.source.Combined()
	if errors.Is(err, query.ErrNotReady) {
		p.logger.Debug("skipping publish, metrics not ready", "reason", err)
		return nil
	}
	if err != nil {
		return err
	}
	return p.sink.SendHostMetrics(ctx, p.hostID, snap)
}
