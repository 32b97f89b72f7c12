package services

import "sync/atomic"

// UsageGuard counts documents embedded through the host-shared credential.
// The counter is process-wide, monotonically non-decreasing and reset only
// by restart. It never rejects anything itself; callers check CapReached
// before starting an ingestion.
type UsageGuard struct {
	sharedKey string
	cap       int64
	counter   atomic.Int64
}

func NewUsageGuard(sharedKey string, cap int) *UsageGuard {
	return &UsageGuard{sharedKey: sharedKey, cap: int64(cap)}
}

// Charge adds n to the counter only when the caller used the host-shared
// credential. A caller-supplied key never affects the counter.
func (g *UsageGuard) Charge(credential string, n int) {
	if g.sharedKey == "" || credential != g.sharedKey {
		return
	}
	g.counter.Add(int64(n))
}

func (g *UsageGuard) Count() int64 {
	return g.counter.Load()
}

// CapReached reports whether the configured cap has been hit. A cap of 0
// disables enforcement.
func (g *UsageGuard) CapReached() bool {
	return g.cap > 0 && g.counter.Load() >= g.cap
}

func (g *UsageGuard) Cap() int64 { return g.cap }
