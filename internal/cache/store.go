package cache

import "hostmon-agent/internal/model"

// Store owns the four category slots. It is created once and shared by the
// scheduler (writer) and the query service (reader).
type Store struct {
	CPU     *Slot[model.CPUSnapshot]
	Memory  *Slot[model.MemorySnapshot]
	Disk    *Slot[model.DiskSnapshot]
	Network *Slot[model.NetworkSnapshot]
}

func NewStore() *Store {
	return &Store{
		CPU:     NewSlot[model.CPUSnapshot](),
		Memory:  NewSlot[model.MemorySnapshot](),
		Disk:    NewSlot[model.DiskSnapshot](),
		Network: NewSlot[model.NetworkSnapshot](),
	}
}

// Present reports, per category, whether its slot has ever been written.
func (s *Store) Present() map[model.Category]bool {
	_, _, cpu := s.CPU.Read()
	_, _, mem := s.Memory.Read()
	_, _, disk := s.Disk.Read()
	_, _, net := s.Network.Read()
	return map[model.Category]bool{
		model.CategoryCPU:     cpu,
		model.CategoryMemory:  mem,
		model.CategoryDisk:    disk,
		model.CategoryNetwork: net,
	}
}
