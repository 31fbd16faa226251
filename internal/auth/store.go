// Package auth holds the login state of a dashboard client.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"admindash/internal/backend"
	"admindash/internal/model"
	"admindash/internal/store"
	"admindash/internal/util"
)

const storeName = "auth"

var ErrInvalidCredentials = backend.ErrInvalidCredentials

type State struct {
	User    util.Optional[model.AuthUser] `json:"user"`
	Loading bool                          `json:"loading"`
	Error   string                        `json:"error,omitempty"`
	Phase   store.Phase                   `json:"phase"`
}

func (s State) Authenticated() bool {
	return s.User.IsSet
}

type Store struct {
	logger   *slog.Logger
	checker  backend.CredentialChecker
	recorder store.Recorder

	mu    sync.RWMutex
	seq   store.Sequence
	state State
}

func NewStore(logger *slog.Logger, checker backend.CredentialChecker, recorder store.Recorder) *Store {
	return &Store{
		logger:   logger,
		checker:  checker,
		recorder: store.OrNop(recorder),
		state:    State{Phase: store.PhaseIdle},
	}
}

// Login runs the credential check. On success the user is set; on failure
// Error is set and the user stays unset.
func (s *Store) Login(ctx context.Context, username, password string) error {
	s.mu.Lock()
	token := s.seq.Next()
	s.state.Loading = true
	s.state.Phase = store.PhasePending
	s.mu.Unlock()

	started := time.Now()
	user, err := s.checker.CheckCredentials(ctx, username, password)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seq.IsLatest(token) {
		s.recorder.RecordFetch(ctx, storeName, store.OutcomeSuperseded, time.Since(started))
		return store.ErrSuperseded
	}

	s.state.Loading = false
	if err != nil {
		s.state.User = util.None[model.AuthUser]()
		s.state.Error = loginErrorMessage(err)
		s.state.Phase = store.PhaseRejected
		s.recorder.RecordFetch(ctx, storeName, store.OutcomeRejected, time.Since(started))
		return fmt.Errorf("login failed: %w", err)
	}

	s.state.User = util.Some(user)
	s.state.Error = ""
	s.state.Phase = store.PhaseFulfilled
	s.recorder.RecordFetch(ctx, storeName, store.OutcomeFulfilled, time.Since(started))

	return nil
}

// Logout clears the user unconditionally. A login still in flight is
// invalidated so it cannot sign the client back in.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq.Next()
	s.state = State{Phase: store.PhaseIdle}
	s.recorder.RecordAction(ctx, storeName, "logout")
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

func loginErrorMessage(err error) string {
	switch {
	case errors.Is(err, backend.ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "Login timed out, please try again"
	default:
		return "Login failed, please try again"
	}
}
