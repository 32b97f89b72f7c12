package services

import (
	"sync"
	"testing"
)

func TestUsageGuardChargesOnlySharedKey(t *testing.T) {
	g := NewUsageGuard("AIza-host-key", 50)

	g.Charge("AIza-host-key", 3)
	g.Charge("AIza-user-key", 10)
	g.Charge("", 5)

	if got := g.Count(); got != 3 {
		t.Errorf("count = %d, want 3", got)
	}
}

func TestUsageGuardNoSharedKeyNeverCharges(t *testing.T) {
	g := NewUsageGuard("", 50)

	g.Charge("", 4)
	g.Charge("anything", 4)

	if got := g.Count(); got != 0 {
		t.Errorf("count = %d, want 0", got)
	}
}

func TestUsageGuardCapReached(t *testing.T) {
	g := NewUsageGuard("AIza-host-key", 5)

	if g.CapReached() {
		t.Fatal("cap reached before any charge")
	}
	g.Charge("AIza-host-key", 4)
	if g.CapReached() {
		t.Fatal("cap reached at 4/5")
	}
	g.Charge("AIza-host-key", 1)
	if !g.CapReached() {
		t.Fatal("cap not reached at 5/5")
	}
	g.Charge("AIza-host-key", 1)
	if got := g.Count(); got != 6 {
		t.Errorf("counter stopped at %d, want monotonic 6", got)
	}
}

func TestUsageGuardZeroCapDisablesEnforcement(t *testing.T) {
	g := NewUsageGuard("AIza-host-key", 0)
	g.Charge("AIza-host-key", 1000)
	if g.CapReached() {
		t.Error("cap of 0 must disable enforcement")
	}
}

func TestUsageGuardConcurrentCharges(t *testing.T) {
	g := NewUsageGuard("AIza-host-key", 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				g.Charge("AIza-host-key", 1)
			}
		}()
	}
	wg.Wait()

	if got := g.Count(); got != 5000 {
		t.Errorf("count = %d, want 5000", got)
	}
}
