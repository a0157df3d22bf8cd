package cache

import (
	"sync"
	"testing"
	"time"

	"hostmon-agent/internal/model"
)

func TestSlotNotReadyBeforeFirstWrite(t *testing.T) {
	s := NewSlot[model.NetworkSnapshot]()
	v, at, ok := s.Read()
	if ok {
		t.Fatalf("expected slot to be empty, got %+v at %v", v, at)
	}
	if !at.IsZero() {
		t.Fatalf("expected zero timestamp, got %v", at)
	}
}

func TestSlotZeroValueIsPresentAfterWrite(t *testing.T) {
	s := NewSlot[model.NetworkSnapshot]()
	now := time.Unix(1700000000, 0)
	s.Write(model.NetworkSnapshot{}, now)

	v, at, ok := s.Read()
	if !ok {
		t.Fatal("expected slot to be present after write")
	}
	if v != (model.NetworkSnapshot{}) {
		t.Fatalf("unexpected value %+v", v)
	}
	if !at.Equal(now) {
		t.Fatalf("timestamp = %v, want %v", at, now)
	}
	if s.Writes() != 1 {
		t.Fatalf("writes = %d, want 1", s.Writes())
	}
}

func TestSlotOverwriteKeepsLatest(t *testing.T) {
	s := NewSlot[model.MemorySnapshot]()
	s.Write(model.MemorySnapshot{Total: 1}, time.Unix(1, 0))
	s.Write(model.MemorySnapshot{Total: 2}, time.Unix(2, 0))

	v, at, _ := s.Read()
	if v.Total != 2 || at.Unix() != 2 {
		t.Fatalf("got %+v at %v, want total=2 at 2", v, at)
	}
}

// Every field of a written snapshot carries the same generation number, so a
// torn read would surface as mismatched fields.
func TestSlotConcurrentReadersNeverSeeTornWrites(t *testing.T) {
	s := NewSlot[model.NetworkSnapshot]()
	const generations = 20000

	var wg sync.WaitGroup
	done := make(chan struct{})
	errs := make(chan string, 1)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				v, at, ok := s.Read()
				if !ok {
					continue
				}
				g := v.BytesSent
				if v.BytesRecv != g || v.PacketsSent != g || v.PacketsRecv != g || uint64(at.UnixNano()) != g {
					select {
					case errs <- "torn read":
					default:
					}
					return
				}
			}
		}()
	}

	for g := uint64(1); g <= generations; g++ {
		s.Write(model.NetworkSnapshot{BytesSent: g, BytesRecv: g, PacketsSent: g, PacketsRecv: g}, time.Unix(0, int64(g)))
	}
	close(done)
	wg.Wait()

	select {
	case msg := <-errs:
		t.Fatal(msg)
	default:
	}
	if s.Writes() != generations {
		t.Fatalf("writes = %d, want %d", s.Writes(), generations)
	}
}

func TestStorePresent(t *testing.T) {
	st := NewStore()
	st.Disk.Write(model.DiskSnapshot{}, time.Now())

	present := st.Present()
	for _, c := range model.Categories {
		want := c == model.CategoryDisk
		if present[c] != want {
			t.Fatalf("present[%s] = %v, want %v", c, present[c], want)
		}
	}
}
