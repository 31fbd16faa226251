package auth

import (
	"log/slog"
	"sync"
	"time"

	"admindash/internal/backend"
	"admindash/internal/store"
)

// Sessions keeps one auth Store per browser client, keyed by the client id
// stored in the HTTP session.
type Sessions struct {
	logger   *slog.Logger
	checker  backend.CredentialChecker
	recorder store.Recorder
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*sessionEntry
}

type sessionEntry struct {
	store    *Store
	lastSeen time.Time
}

func NewSessions(logger *slog.Logger, checker backend.CredentialChecker, recorder store.Recorder) *Sessions {
	return &Sessions{
		logger:   logger,
		checker:  checker,
		recorder: store.OrNop(recorder),
		now:      time.Now,
		entries:  make(map[string]*sessionEntry),
	}
}

// Get returns the client's store, creating it on first use.
func (r *Sessions) Get(clientID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[clientID]
	if !ok {
		entry = &sessionEntry{store: NewStore(r.logger, r.checker, r.recorder)}
		r.entries[clientID] = entry
	}
	entry.lastSeen = r.now()
	return entry.store
}

// Lookup returns the client's store without creating one.
func (r *Sessions) Lookup(clientID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[clientID]
	if !ok {
		return nil, false
	}
	entry.lastSeen = r.now()
	return entry.store, true
}

func (r *Sessions) Remove(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, clientID)
}

func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// SignedOutGrace is how long a signed-out store survives without requests.
// It covers the gap between a request attaching its store and a login
// starting on it.
const SignedOutGrace = 10 * time.Minute

// Put registers s for the client, replacing any store already there.
func (r *Sessions) Put(clientID string, s *Store) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[clientID] = &sessionEntry{store: s, lastSeen: r.now()}
}

// Prune drops signed-out stores not seen for SignedOutGrace (or maxIdle when
// shorter) and any store not seen for maxIdle. Stores with a login in flight
// are kept. It returns the number of stores removed.
func (r *Sessions) Prune(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	signedOutIdle := min(SignedOutGrace, maxIdle)
	removed := 0
	for id, entry := range r.entries {
		state := entry.store.Snapshot()
		if state.Loading {
			continue
		}

		idle := now.Sub(entry.lastSeen)
		if idle > maxIdle || (!state.Authenticated() && idle > signedOutIdle) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}
