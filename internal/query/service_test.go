package query

import (
	"errors"
	"slices"
	"testing"
	"time"

	"hostmon-agent/internal/cache"
	"hostmon-agent/internal/model"
)

func TestAccessorsNotReadyBeforeFirstWrite(t *testing.T) {
	svc := NewService(cache.NewStore())

	checks := map[model.Category]error{}
	_, checks[model.CategoryCPU] = svc.CPU()
	_, checks[model.CategoryMemory] = svc.Memory()
	_, checks[model.CategoryDisk] = svc.Disk()
	_, checks[model.CategoryNetwork] = svc.Network()

	for c, err := range checks {
		if !errors.Is(err, ErrNotReady) {
			t.Fatalf("%s: expected ErrNotReady, got %v", c, err)
		}
		var nr *NotReadyError
		if !errors.As(err, &nr) || len(nr.Categories) != 1 || nr.Categories[0] != c {
			t.Fatalf("%s: unexpected error %#v", c, err)
		}
	}
}

func TestAccessorReturnsCachedValueAndCaptureTime(t *testing.T) {
	store := cache.NewStore()
	at := time.Unix(1700000000, 0)
	store.CPU.Write(model.CPUSnapshot{PerCore: []float64{12.5, 80}, Count: 2}, at)

	svc := NewService(store)
	r, err := svc.CPU()
	if err != nil {
		t.Fatal(err)
	}
	if !r.SampledAt.Equal(at) || r.Value.Count != 2 {
		t.Fatalf("unexpected reading %+v", r)
	}

	r.Value.PerCore[0] = 99
	again, _ := svc.CPU()
	if again.Value.PerCore[0] != 12.5 {
		t.Fatal("caller mutation leaked into the cached snapshot")
	}
}

func TestAggregateNotReadyWhenDiskMissing(t *testing.T) {
	store := cache.NewStore()
	now := time.Now()
	store.CPU.Write(model.CPUSnapshot{}, now)
	store.Memory.Write(model.MemorySnapshot{}, now)
	store.Network.Write(model.NetworkSnapshot{}, now)

	snap, err := NewService(store).Combined()
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v with %+v", err, snap)
	}
	var nr *NotReadyError
	if !errors.As(err, &nr) || !slices.Equal(nr.Categories, []model.Category{model.CategoryDisk}) {
		t.Fatalf("unexpected categories in %v", err)
	}
}

func TestAggregateStampsCompositionTime(t *testing.T) {
	store := cache.NewStore()
	old := time.Unix(1000, 0)
	store.CPU.Write(model.CPUSnapshot{Count: 4, PerCore: make([]float64, 4)}, old)
	store.Memory.Write(model.MemorySnapshot{Total: 16}, old.Add(time.Second))
	store.Disk.Write(model.DiskSnapshot{Disks: []model.DiskVolume{{Mountpoint: "/"}}}, old.Add(2*time.Second))
	store.Network.Write(model.NetworkSnapshot{BytesSent: 7}, old.Add(3*time.Second))

	composed := time.Unix(5000, 0)
	agg := NewAggregator(store)
	agg.now = func() time.Time { return composed }

	snap, err := agg.Aggregate()
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Timestamp.Equal(composed) {
		t.Fatalf("timestamp = %v, want %v", snap.Timestamp, composed)
	}
	if snap.CPU.Count != 4 || snap.Memory.Total != 16 || len(snap.Disk.Disks) != 1 || snap.Network.BytesSent != 7 {
		t.Fatalf("unexpected combined snapshot %+v", snap)
	}
}

func TestNotReadyErrorMessage(t *testing.T) {
	err := &NotReadyError{Categories: []model.Category{model.CategoryCPU, model.CategoryDisk}}
	if got := err.Error(); got != "metrics not ready: cpu, disk" {
		t.Fatalf("got %q", got)
	}
}
