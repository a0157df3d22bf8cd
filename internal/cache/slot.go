// Package cache holds the latest snapshot per metric category.
package cache

import (
	"sync/atomic"
	"time"
)

type entry[T any] struct {
	value T
	at    time.Time
}

// Slot is a single-writer, multi-reader holder of one snapshot. Writes swap in a
// fresh immutable entry, so a reader sees either the old or the new value whole.
// Values must not be mutated after Write.
type Slot[T any] struct {
	cur    atomic.Pointer[entry[T]]
	writes atomic.Uint64
}

func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{}
}

func (s *Slot[T]) Write(v T, at time.Time) {
	s.cur.Store(&entry[T]{value: v, at: at})
	s.writes.Add(1)
}

// Read returns the last written value and its capture time. ok is false until
// the first Write.
func (s *Slot[T]) Read() (v T, at time.Time, ok bool) {
	e := s.cur.Load()
	if e == nil {
		return v, time.Time{}, false
	}
	return e.value, e.at, true
}

// Writes counts successful writes since creation.
func (s *Slot[T]) Writes() uint64 {
	return s.writes.Load()
}
