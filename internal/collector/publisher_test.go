package collector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"hostmon-agent/internal/cache"
	"hostmon-agent/internal/model"
	"hostmon-agent/internal/query"
)

type recordingSink struct {
	sent   []model.CombinedSnapshot
	hostID string
	err    error
}

func (r *recordingSink) SendHostMetrics(_ context.Context, hostID string, m model.CombinedSnapshot) error {
	if r.err != nil {
		return r.err
	}
	r.hostID = hostID
	r.sent = append(r.sent, m)
	return nil
}

func (r *recordingSink) Close(context.Context) error { return nil }

func TestPublisherSkipsUntilReady(t *testing.T) {
	store := cache.NewStore()
	sink := &recordingSink{}
	p := NewPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)), query.NewService(store), sink, "host-a", time.Second)

	if err := p.publishOnce(context.Background()); err != nil {
		t.Fatalf("not-ready should be skipped silently, got %v", err)
	}
	if len(sink.sent) != 0 {
		t.Fatal("nothing should be sent before every category is ready")
	}

	now := time.Now()
	store.CPU.Write(model.CPUSnapshot{Count: 2, PerCore: []float64{1, 2}}, now)
	store.Memory.Write(model.MemorySnapshot{}, now)
	store.Disk.Write(model.DiskSnapshot{}, now)
	store.Network.Write(model.NetworkSnapshot{BytesRecv: 9}, now)

	if err := p.publishOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(sink.sent) != 1 || sink.hostID != "host-a" || sink.sent[0].Network.BytesRecv != 9 {
		t.Fatalf("unexpected publish %+v", sink)
	}
}

func TestPublisherReportsSinkErrors(t *testing.T) {
	store := cache.NewStore()
	now := time.Now()
	store.CPU.Write(model.CPUSnapshot{}, now)
	store.Memory.Write(model.MemorySnapshot{}, now)
	store.Disk.Write(model.DiskSnapshot{}, now)
	store.Network.Write(model.NetworkSnapshot{}, now)

	boom := errors.New("backend unavailable")
	p := NewPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)), query.NewService(store), &recordingSink{err: boom}, "h", time.Second)
	if err := p.publishOnce(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestPublisherRunStopsOnCancel(t *testing.T) {
	tick := newManualTicker()
	sink := &recordingSink{}
	store := cache.NewStore()
	p := NewPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)), query.NewService(store), sink, "h", time.Second)
	p.newTicker = func(time.Duration) Ticker { return tick }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	tick.Tick()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("publisher did not stop")
	}
	if !tick.stopped.Load() {
		t.Fatal("ticker should be stopped on exit")
	}
}

func TestStatusSnapshotOrder(t *testing.T) {
	s := NewStatus()
	at := time.Unix(10, 0)
	s.RecordSuccess(model.CategoryDisk, at)
	snap := s.Snapshot()
	if len(snap) != len(model.Categories) {
		t.Fatalf("snapshot has %d entries", len(snap))
	}
	for i, c := range model.Categories {
		if snap[i].Category != c {
			t.Fatalf("entry %d = %s, want %s", i, snap[i].Category, c)
		}
	}
	if snap[2].Refreshes != 1 || snap[2].LastSuccessAt == nil || !snap[2].LastSuccessAt.Equal(at) {
		t.Fatalf("unexpected disk status %+v", snap[2])
	}
	if s.Degraded() {
		t.Fatal("no failures recorded, should not be degraded")
	}
}
