// Package query is the read-only surface over cached snapshots. Nothing here
// samples the host; reads only ever return what the scheduler last stored.
package query

import (
	"time"

	"hostmon-agent/internal/cache"
	"hostmon-agent/internal/model"
)

// Reading is a cached snapshot together with its capture time.
type Reading[T any] struct {
	Value     T
	SampledAt time.Time
}

type Service struct {
	store *cache.Store
	agg   *Aggregator
}

func NewService(store *cache.Store) *Service {
	return &Service{store: store, agg: NewAggregator(store)}
}

func (s *Service) CPU() (Reading[model.CPUSnapshot], error) {
	r, err := read(s.store.CPU, model.CategoryCPU)
	r.Value = r.Value.Clone()
	return r, err
}

func (s *Service) Memory() (Reading[model.MemorySnapshot], error) {
	return read(s.store.Memory, model.CategoryMemory)
}

func (s *Service) Disk() (Reading[model.DiskSnapshot], error) {
	r, err := read(s.store.Disk, model.CategoryDisk)
	r.Value = r.Value.Clone()
	return r, err
}

func (s *Service) Network() (Reading[model.NetworkSnapshot], error) {
	return read(s.store.Network, model.CategoryNetwork)
}

func (s *Service) Combined() (model.CombinedSnapshot, error) {
	return s.agg.Aggregate()
}

func read[T any](slot *cache.Slot[T], c model.Category) (Reading[T], error) {
	v, at, ok := slot.Read()
	if !ok {
		return Reading[T]{}, &NotReadyError{Categories: []model.Category{c}}
	}
	return Reading[T]{Value: v, SampledAt: at}, nil
}
