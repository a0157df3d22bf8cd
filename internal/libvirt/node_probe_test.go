package libvirt

import "testing"

func TestCPUTimesFromFields(t *testing.T) {
	got := cpuTimesFromFields(map[string]uint64{
		"user":   3_000_000_000,
		"kernel": 1_500_000_000,
		"idle":   10_000_000_000,
		"iowait": 500_000_000,
	})
	if got.User != 3 || got.System != 1.5 || got.Idle != 10 || got.IOWait != 0.5 {
		t.Fatalf("unexpected times %+v", got)
	}
	if got.Total() != 15 || got.Idled() != 10.5 {
		t.Fatalf("total=%v idled=%v", got.Total(), got.Idled())
	}
}

func TestMemoryFromFields(t *testing.T) {
	got, err := memoryFromFields(map[string]uint64{
		"total":   16 * 1024 * 1024,
		"free":    4 * 1024 * 1024,
		"buffers": 1 * 1024 * 1024,
		"cached":  3 * 1024 * 1024,
	})
	if err != nil {
		t.Fatal(err)
	}
	const gib = 1 << 30
	if got.TotalBytes != 16*gib || got.FreeBytes != 4*gib || got.UsedBytes != 8*gib || got.AvailableBytes != 8*gib {
		t.Fatalf("unexpected counters %+v", got)
	}
}

func TestMemoryFromFieldsRejectsZeroTotal(t *testing.T) {
	if _, err := memoryFromFields(map[string]uint64{"free": 1}); err == nil {
		t.Fatal("expected error for zero total")
	}
}

func TestParseURIFallsBackToSystem(t *testing.T) {
	m := NewConnManager("", 0, 0, nil)
	uri, err := m.parseURI()
	if err != nil {
		t.Fatal(err)
	}
	if uri.Scheme == "" {
		t.Fatalf("expected default scheme, got %q", uri.String())
	}
}
