package collector

import (
	"sync"
	"time"

	"hostmon-agent/internal/model"
)

// CategoryStatus is the refresh bookkeeping for one category.
type CategoryStatus struct {
	Category            model.Category `json:"category"`
	Refreshes           uint64         `json:"refreshes"`
	Failures            uint64         `json:"failures"`
	ConsecutiveFailures uint64         `json:"consecutive_failures"`
	LastSuccessAt       *time.Time     `json:"last_success_at,omitempty"`
	LastErrorAt         *time.Time     `json:"last_error_at,omitempty"`
	LastError           string         `json:"last_error,omitempty"`
}

// Status records per-category refresh outcomes. A success clears the last
// error message; LastErrorAt is kept for diagnosis.
type Status struct {
	mu         sync.RWMutex
	categories map[model.Category]*CategoryStatus
}

func NewStatus() *Status {
	s := &Status{categories: make(map[model.Category]*CategoryStatus, len(model.Categories))}
	for _, c := range model.Categories {
		s.categories[c] = &CategoryStatus{Category: c}
	}
	return s
}

func (s *Status) RecordSuccess(c model.Category, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.entryLocked(c)
	st.Refreshes++
	st.ConsecutiveFailures = 0
	st.LastSuccessAt = &at
	st.LastError = ""
}

func (s *Status) RecordFailure(c model.Category, at time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.entryLocked(c)
	st.Failures++
	st.ConsecutiveFailures++
	st.LastErrorAt = &at
	if err != nil {
		st.LastError = err.Error()
	}
}

func (s *Status) Get(c model.Category) CategoryStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.categories[c]; ok {
		return copyStatus(st)
	}
	return CategoryStatus{Category: c}
}

// Snapshot returns every category in composition order.
func (s *Status) Snapshot() []CategoryStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CategoryStatus, 0, len(model.Categories))
	for _, c := range model.Categories {
		out = append(out, copyStatus(s.categories[c]))
	}
	return out
}

// Degraded reports whether any category's latest refresh failed.
func (s *Status) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.categories {
		if st.ConsecutiveFailures > 0 {
			return true
		}
	}
	return false
}

func (s *Status) entryLocked(c model.Category) *CategoryStatus {
	st, ok := s.categories[c]
	if !ok {
		st = &CategoryStatus{Category: c}
		s.categories[c] = st
	}
	return st
}

func copyStatus(st *CategoryStatus) CategoryStatus {
	out := *st
	if st.LastSuccessAt != nil {
		t := *st.LastSuccessAt
		out.LastSuccessAt = &t
	}
	if st.LastErrorAt != nil {
		t := *st.LastErrorAt
		out.LastErrorAt = &t
	}
	return out
}
