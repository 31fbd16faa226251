// Package users is the user-management state container: the fetched user
// list, the search-filtered view over it and the pagination cursor.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"admindash/internal/backend"
	"admindash/internal/model"
	"admindash/internal/store"
)

const (
	PageSize  = 5
	storeName = "users"
)

// State is a read-only snapshot of the store.
type State struct {
	Users         []model.User `json:"users"`
	FilteredUsers []model.User `json:"filteredUsers"`
	SearchTerm    string       `json:"searchTerm"`
	CurrentPage   int          `json:"currentPage"`
	TotalPages    int          `json:"totalPages"`
	Loading       bool         `json:"loading"`
	Error         string       `json:"error,omitempty"`
	DeletedCount  int          `json:"deletedCount"`
	Phase         store.Phase  `json:"phase"`
	FetchedAt     time.Time    `json:"fetchedAt"`
}

// Page returns the visible slice filteredUsers[(currentPage-1)*5 : currentPage*5].
// An out-of-range page yields an empty slice.
func (s State) Page() []model.User {
	start := (s.CurrentPage - 1) * PageSize
	if start < 0 || start >= len(s.FilteredUsers) {
		return []model.User{}
	}
	end := min(start+PageSize, len(s.FilteredUsers))
	return s.FilteredUsers[start:end]
}

// Loaded reports whether at least one fetch has succeeded.
func (s State) Loaded() bool {
	return !s.FetchedAt.IsZero()
}

func TotalPages(n int) int {
	return (n + PageSize - 1) / PageSize
}

type Store struct {
	logger   *slog.Logger
	source   backend.UserSource
	recorder store.Recorder

	mu    sync.RWMutex
	seq   store.Sequence
	state State
}

func NewStore(logger *slog.Logger, source backend.UserSource, recorder store.Recorder) *Store {
	return &Store{
		logger:   logger,
		source:   source,
		recorder: store.OrNop(recorder),
		state: State{
			Users:         []model.User{},
			FilteredUsers: []model.User{},
			CurrentPage:   1,
			Phase:         store.PhaseIdle,
		},
	}
}

// Fetch requests the canonical user collection. The lock is released while
// the request is in flight; if a newer Fetch starts meanwhile, this result is
// discarded and ErrSuperseded returned.
func (s *Store) Fetch(ctx context.Context) error {
	s.mu.Lock()
	token := s.seq.Next()
	s.state.Loading = true
	s.state.Phase = store.PhasePending
	s.mu.Unlock()

	started := time.Now()
	fetched, err := s.source.ListUsers(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seq.IsLatest(token) {
		s.logger.DebugContext(ctx, "Discarding superseded users response", "token", token)
		s.recorder.RecordFetch(ctx, storeName, store.OutcomeSuperseded, time.Since(started))
		return store.ErrSuperseded
	}

	s.state.Loading = false
	if err != nil {
		s.state.Error = fetchErrorMessage(err)
		s.state.Phase = store.PhaseRejected
		s.recorder.RecordFetch(ctx, storeName, store.OutcomeRejected, time.Since(started))
		return fmt.Errorf("failed to fetch users: %w", err)
	}

	s.state.Users = model.CloneUsers(fetched)
	s.state.Error = ""
	s.state.Phase = store.PhaseFulfilled
	s.state.FetchedAt = time.Now()
	s.recompute()
	s.recorder.RecordFetch(ctx, storeName, store.OutcomeFulfilled, time.Since(started))

	return nil
}

// Filter keeps the users whose name or email contains term, case-insensitively,
// and resets the cursor to the first page.
func (s *Store) Filter(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.SearchTerm = term
	s.recompute()
	s.state.CurrentPage = 1
}

// Delete removes the user from both collections. It reports whether anything
// was removed; an unknown id leaves the state untouched.
func (s *Store) Delete(ctx context.Context, id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.state.Users, func(u model.User) bool { return u.ID == id })
	if idx < 0 {
		return false
	}

	s.state.Users = slices.Delete(s.state.Users, idx, idx+1)
	s.state.FilteredUsers = slices.DeleteFunc(s.state.FilteredUsers, func(u model.User) bool {
		return u.ID == id
	})
	s.state.DeletedCount++
	s.state.TotalPages = TotalPages(len(s.state.FilteredUsers))
	s.clampPage()

	s.recorder.RecordAction(ctx, storeName, "delete")
	return true
}

// SetPage moves the cursor without bounds checks.
func (s *Store) SetPage(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.CurrentPage = n
}

func (s *Store) Find(id int) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := slices.IndexFunc(s.state.Users, func(u model.User) bool { return u.ID == id })
	if idx < 0 {
		return model.User{}, false
	}
	return s.state.Users[idx], true
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.state
	snap.Users = model.CloneUsers(s.state.Users)
	snap.FilteredUsers = model.CloneUsers(s.state.FilteredUsers)
	return snap
}

// recompute rebuilds FilteredUsers from Users and the search term, then
// TotalPages, then clamps the cursor. Callers hold s.mu.
func (s *Store) recompute() {
	s.state.FilteredUsers = Match(s.state.Users, s.state.SearchTerm)
	s.state.TotalPages = TotalPages(len(s.state.FilteredUsers))
	s.clampPage()
}

func (s *Store) clampPage() {
	s.state.CurrentPage = max(1, min(s.state.CurrentPage, s.state.TotalPages))
}

// Match returns the users whose name or email contains term, case-insensitively,
// in their original order.
func Match(all []model.User, term string) []model.User {
	needle := strings.ToLower(term)
	matched := make([]model.User, 0, len(all))
	for _, u := range all {
		if strings.Contains(strings.ToLower(u.Name), needle) || strings.Contains(strings.ToLower(u.Email), needle) {
			matched = append(matched, u)
		}
	}
	return matched
}

func fetchErrorMessage(err error) string {
	if errors.Is(err, backend.ErrFetchFailed) {
		return "Failed to fetch users: " + backend.ErrFetchFailed.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "Failed to fetch users: the request was cancelled"
	}
	return "Failed to fetch users"
}
