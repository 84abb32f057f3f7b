// Package ratelimit bounds requests per client identity with a fixed
// window counter. It is a cheap deterrent for the upstream model budget,
// not a durable quota: the ledger lives in process memory and resets on
// restart.
package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of a single admission check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // wait until the window resets; zero when allowed on a fresh window
}

type entry struct {
	count   int
	resetAt time.Time
}

// FixedWindow admits up to max requests per identity per window. One mutex
// guards the whole ledger: the critical section is a map lookup and an
// integer compare, so per-identity sharding is not worth the state.
type FixedWindow struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string]*entry
	now     func() time.Time
}

func New(max int, window time.Duration) *FixedWindow {
	return &FixedWindow{
		max:     max,
		window:  window,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Admit records one request for identity and decides whether it may
// proceed. The read-check-increment runs under the lock so two concurrent
// requests cannot both take the last slot.
func (l *FixedWindow) Admit(identity string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[identity]
	if !ok || now.After(e.resetAt) {
		l.entries[identity] = &entry{count: 1, resetAt: now.Add(l.window)}
		return Decision{Allowed: true, Remaining: l.max - 1, RetryAfter: l.window}
	}
	if e.count >= l.max {
		return Decision{Allowed: false, Remaining: 0, RetryAfter: e.resetAt.Sub(now)}
	}
	e.count++
	return Decision{Allowed: true, Remaining: l.max - e.count, RetryAfter: e.resetAt.Sub(now)}
}

// Sweep drops expired entries and reports how many were removed. Without it
// the ledger grows by one entry per distinct identity ever seen.
func (l *FixedWindow) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for id, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of identities currently tracked.
func (l *FixedWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
