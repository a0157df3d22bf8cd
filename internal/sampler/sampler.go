// Package sampler turns raw probe counters into category snapshots. Samplers
// hold no shared state; the scheduler decides where results go.
package sampler

import (
	"context"
	"fmt"
	"math"

	"hostmon-agent/internal/model"
)

// Sampler produces one snapshot of a single category per call.
type Sampler[T any] interface {
	Category() model.Category
	Sample(ctx context.Context) (T, error)
}

// ProbeError reports a failed OS probe for one category.
type ProbeError struct {
	Category model.Category
	Err      error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("%s probe failed: %v", e.Category, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

func probeFailure(c model.Category, err error) error {
	return &ProbeError{Category: c, Err: err}
}

func clampPercent(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

func percentOf(value, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return clampPercent((float64(value) / float64(total)) * 100)
}

func round(value float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(value*p) / p
}
