// Package quota tracks per-provider request budgets so the cascade can
// skip providers known to be exhausted without making a wasted call.
package quota

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Tracker holds the request counters for one provider. Multiple sports
// consult and update the same tracker concurrently, so all state is
// atomic. Injected into each ProviderClient, never a package-level var.
type Tracker struct {
	used      atomic.Int64
	remaining atomic.Int64 // -1 = provider does not report remaining quota
	exhausted atomic.Bool
}

// NewTracker returns a tracker with unknown remaining quota.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.remaining.Store(-1)
	return t
}

// RecordCall counts one outgoing request.
func (t *Tracker) RecordCall() {
	t.used.Add(1)
}

// SetRemaining records the remaining-quota value a provider reported
// in its response headers. Zero marks the provider exhausted.
func (t *Tracker) SetRemaining(n int64) {
	t.remaining.Store(n)
	if n == 0 {
		t.exhausted.Store(true)
	}
}

// MarkExhausted flags the provider after an explicit rate-limit
// response. Sticky for the remainder of the cycle.
func (t *Tracker) MarkExhausted() {
	t.exhausted.Store(true)
}

// Exhausted reports whether the provider should be skipped this cycle.
func (t *Tracker) Exhausted() bool {
	return t.exhausted.Load()
}

// Reset clears the exhausted flag at the start of a new cycle so the
// provider gets one probe call even if it reported zero remaining.
func (t *Tracker) Reset() {
	t.exhausted.Store(false)
	t.remaining.Store(-1)
}

// Usage is a point-in-time snapshot for the /providers endpoint.
type Usage struct {
	Provider  string `json:"provider"`
	Used      int64  `json:"used"`
	Remaining int64  `json:"remaining"` // -1 = unknown
	Exhausted bool   `json:"exhausted"`
}

// Snapshot returns the tracker's current counters.
func (t *Tracker) Snapshot() Usage {
	return Usage{
		Used:      t.used.Load(),
		Remaining: t.remaining.Load(),
		Exhausted: t.exhausted.Load(),
	}
}

// Registry hands out one Tracker per provider name.
type Registry struct {
	mu       sync.RWMutex
	trackers map[string]*Tracker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{trackers: make(map[string]*Tracker)}
}

// ForProvider returns the tracker for a provider, creating it on first
// use.
func (r *Registry) ForProvider(name string) *Tracker {
	r.mu.RLock()
	t, ok := r.trackers[name]
	r.mu.RUnlock()
	if ok {
		return t
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.trackers[name]; ok {
		return t
	}
	t = NewTracker()
	r.trackers[name] = t
	return t
}

// ResetAll clears the exhausted flags on every tracker. Called at the
// start of each sync cycle.
func (r *Registry) ResetAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.trackers {
		t.Reset()
	}
}

// Snapshot returns usage for all known providers, sorted by name.
func (r *Registry) Snapshot() []Usage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Usage, 0, len(r.trackers))
	for name, t := range r.trackers {
		u := t.Snapshot()
		u.Provider = name
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}
