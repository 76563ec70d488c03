package idempotency

import (
	"log/slog"
	"sync"
	"time"
)

// Guard tracks recently-started operation keys and rejects duplicates that
// arrive within their registration window. Entries are removed when the
// operation completes or lazily once the window has elapsed.
//
// All methods are safe for arbitrary concurrent callers.
type Guard struct {
	mu      sync.Mutex
	entries map[string]entry
	logger  *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// entry records when a key was registered and for how long it stays live.
type entry struct {
	registeredAt time.Time
	window       time.Duration
}

// NewGuard creates a new Guard.
// If logger is nil, the process default logger is used.
func NewGuard(logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}

	return &Guard{
		entries: make(map[string]entry),
		logger:  logger.With(slog.String("component", "idempotency_guard")),
		now:     time.Now,
	}
}

// CheckAndRegister performs an atomic check-and-set for the given key.
//
// If no live entry exists for key, one is registered with the current time
// and false is returned: the caller may proceed and must eventually call
// Complete. If a live entry exists (registered within window of now), true
// is returned and the entry is left untouched. An expired entry is replaced
// with a fresh timestamp and treated as non-duplicate.
func (g *Guard) CheckAndRegister(key string, window time.Duration) bool {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.sweepLocked(now)

	if e, ok := g.entries[key]; ok && now.Sub(e.registeredAt) < e.window {
		g.logger.Warn("duplicate operation detected", "key", key)
		return true
	}

	g.entries[key] = entry{registeredAt: now, window: window}
	g.logger.Debug("operation registered", "key", key, "window", window)
	return false
}

// Complete removes the entry for key, allowing an identical operation to be
// accepted again immediately. It must be called exactly once per successful
// CheckAndRegister, by the same logical operation, once the operation has
// committed or definitively failed.
func (g *Guard) Complete(key string) {
	g.mu.Lock()
	delete(g.entries, key)
	g.mu.Unlock()

	g.logger.Debug("operation completed and released", "key", key)
}

// Len returns the number of tracked entries, expired ones included.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// sweepLocked removes entries whose window has elapsed to bound memory.
// Callers must hold g.mu. Live entries are never removed.
func (g *Guard) sweepLocked(now time.Time) {
	removed := 0
	for key, e := range g.entries {
		if now.Sub(e.registeredAt) >= e.window {
			delete(g.entries, key)
			removed++
		}
	}
	if removed > 0 {
		g.logger.Debug("swept expired entries", "count", removed)
	}
}
