package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestSweepStats_Accumulates(t *testing.T) {
	s := NewSweepStats()
	s.Record(2, 1, 0, 30*time.Millisecond)
	s.Record(1, 0, 1, 10*time.Millisecond)

	snap := s.Snapshot()
	if snap.Runs != 2 || snap.Deleted != 3 || snap.Kept != 1 || snap.Failed != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.MaxDuration != 30*time.Millisecond {
		t.Fatalf("max duration = %v", snap.MaxDuration)
	}
	if snap.LastDuration != 10*time.Millisecond {
		t.Fatalf("last duration = %v", snap.LastDuration)
	}
	if snap.LastRunAt.IsZero() {
		t.Fatalf("last run should be set")
	}
}

func TestProm_NilReceiverIsSafe(t *testing.T) {
	var p *Prom
	p.ObserveLogin("staff", "ok")
	p.ObservePresign("PUT")
	p.ObserveSweep("ok", 1, 1, 1)

	called := false
	if err := p.ObserveStore("op", func() error { called = true; return nil }); err != nil || !called {
		t.Fatalf("ObserveStore on nil should just run fn")
	}
}

func TestProm_RegistersOnFreshRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewProm(reg)
	p.ObserveLogin("patient", "invalid")

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "backoffice_auth_logins_total" {
			found = true
		}
	}
	if !found {
		t.Fatalf("logins counter not gathered")
	}
}
