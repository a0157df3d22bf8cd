package query

import (
	"errors"
	"strings"

	"hostmon-agent/internal/model"
)

// ErrNotReady matches any NotReadyError via errors.Is.
var ErrNotReady = errors.New("metrics not ready")

// NotReadyError lists categories that have never been sampled successfully.
type NotReadyError struct {
	Categories []model.Category
}

func (e *NotReadyError) Error() string {
	names := make([]string, 0, len(e.Categories))
	for _, c := range e.Categories {
		names = append(names, c.String())
	}
	return "metrics not ready: " + strings.Join(names, ", ")
}

func (e *NotReadyError) Is(target error) bool {
	return target == ErrNotReady
}
