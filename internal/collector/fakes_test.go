package collector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"hostmon-agent/internal/model"
)

// manualTicker delivers ticks only when the test calls Tick.
type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop() { m.stopped.Store(true) }

// Tick blocks until the loop has received the tick.
func (m *manualTicker) Tick() { m.ch <- time.Now() }

// tickerSet hands out one manual ticker per interval, in creation order.
type tickerSet struct {
	mu      sync.Mutex
	created map[time.Duration]*manualTicker
	ready   chan time.Duration
}

func newTickerSet() *tickerSet {
	return &tickerSet{created: make(map[time.Duration]*manualTicker), ready: make(chan time.Duration, 16)}
}

func (s *tickerSet) New(d time.Duration) Ticker {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := newManualTicker()
	s.created[d] = t
	s.ready <- d
	return t
}

func (s *tickerSet) Get(d time.Duration) *manualTicker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created[d]
}

// scriptedSampler returns the next scripted result on each call; once the
// script runs out it repeats the last entry.
type scriptedSampler[T any] struct {
	category model.Category
	mu       sync.Mutex
	script   []result[T]
	calls    int
	block    chan struct{}
	entered  chan struct{}
}

type result[T any] struct {
	v   T
	err error
}

func (s *scriptedSampler[T]) Category() model.Category { return s.category }

func (s *scriptedSampler[T]) Sample(ctx context.Context) (T, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.script[min(s.calls, len(s.script)-1)]
	s.calls++
	return r.v, r.err
}

func ok[T any](v T) result[T] { return result[T]{v: v} }
func fail[T any](msg string) result[T] { return result[T]{err: errors.New(msg)} }
