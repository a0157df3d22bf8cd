package query

import (
	"time"

	"hostmon-agent/internal/cache"
	"hostmon-agent/internal/model"
)

// Aggregator composes one CombinedSnapshot from the four slots.
type Aggregator struct {
	store *cache.Store
	now   func() time.Time
}

func NewAggregator(store *cache.Store) *Aggregator {
	return &Aggregator{store: store, now: time.Now}
}

// Aggregate fails with a NotReadyError naming every category that has no value
// yet; it never fills a missing category with zeros.
func (a *Aggregator) Aggregate() (model.CombinedSnapshot, error) {
	cpu, _, cpuOK := a.store.CPU.Read()
	mem, _, memOK := a.store.Memory.Read()
	disk, _, diskOK := a.store.Disk.Read()
	net, _, netOK := a.store.Network.Read()

	var missing []model.Category
	if !cpuOK {
		missing = append(missing, model.CategoryCPU)
	}
	if !memOK {
		missing = append(missing, model.CategoryMemory)
	}
	if !diskOK {
		missing = append(missing, model.CategoryDisk)
	}
	if !netOK {
		missing = append(missing, model.CategoryNetwork)
	}
	if len(missing) > 0 {
		return model.CombinedSnapshot{}, &NotReadyError{Categories: missing}
	}

	return model.CombinedSnapshot{
		Timestamp: a.now(),
		CPU:       cpu.Clone(),
		Memory:    mem,
		Disk:      disk.Clone(),
		Network:   net,
	}, nil
}
