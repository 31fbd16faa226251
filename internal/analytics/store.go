// Package analytics is the analytics state container: the aggregate snapshot
// and the query context (date range, region) that the caller fetches it with.
package analytics

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

const (
	DefaultRangeDays = 180
	storeName        = "analytics"
)

type State struct {
	model.AnalyticsSnapshot

	Loading        bool                  `json:"loading"`
	Error          string                `json:"error,omitempty"`
	Phase          store.Phase           `json:"phase"`
	DateRange      model.DateRange       `json:"dateRange"`
	SelectedRegion util.Optional[string] `json:"selectedRegion"`
	// FetchedWith is the query of the last successful fetch.
	FetchedWith util.Optional[model.AnalyticsQuery] `json:"fetchedWith"`
}

// Query is the query described by the stored date range and region.
func (s State) Query() model.AnalyticsQuery {
	return model.AnalyticsQuery{DateRange: s.DateRange, Region: s.SelectedRegion}
}

// Stale reports whether the snapshot was not fetched with the current query.
// The store never refetches on its own; callers use this to decide.
func (s State) Stale() bool {
	return !s.FetchedWith.IsSet || !s.FetchedWith.Val.Equal(s.Query())
}

type Store struct {
	logger   *slog.Logger
	source   backend.AnalyticsSource
	recorder store.Recorder

	mu    sync.RWMutex
	seq   store.Sequence
	state State
}

func NewStore(logger *slog.Logger, source backend.AnalyticsSource, recorder store.Recorder, now time.Time) *Store {
	return &Store{
		logger:   logger,
		source:   source,
		recorder: store.OrNop(recorder),
		state: State{
			AnalyticsSnapshot: model.AnalyticsSnapshot{}.Clone(),
			Phase:             store.PhaseIdle,
			DateRange:         DefaultRange(now),
			SelectedRegion:    util.None[string](),
		},
	}
}

// DefaultRange covers the DefaultRangeDays days ending at now.
func DefaultRange(now time.Time) model.DateRange {
	now = now.UTC()
	return model.DateRange{Start: now.AddDate(0, 0, -DefaultRangeDays), End: now}
}

// Fetch requests a snapshot for query and replaces every snapshot field on
// success. A result that arrives after a newer Fetch started is discarded.
func (s *Store) Fetch(ctx context.Context, query model.AnalyticsQuery) error {
	s.mu.Lock()
	token := s.seq.Next()
	s.state.Loading = true
	s.state.Phase = store.PhasePending
	s.mu.Unlock()

	started := time.Now()
	snapshot, err := s.source.GetAnalytics(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seq.IsLatest(token) {
		s.logger.DebugContext(ctx, "Discarding superseded analytics response", "token", token)
		s.recorder.RecordFetch(ctx, storeName, store.OutcomeSuperseded, time.Since(started))
		return store.ErrSuperseded
	}

	s.state.Loading = false
	if err != nil {
		s.state.Error = fetchErrorMessage(err)
		s.state.Phase = store.PhaseRejected
		s.recorder.RecordFetch(ctx, storeName, store.OutcomeRejected, time.Since(started))
		return fmt.Errorf("failed to fetch analytics: %w", err)
	}

	s.state.AnalyticsSnapshot = snapshot.Clone()
	s.state.Error = ""
	s.state.Phase = store.PhaseFulfilled
	s.state.FetchedWith = util.Some(query)
	s.recorder.RecordFetch(ctx, storeName, store.OutcomeFulfilled, time.Since(started))

	return nil
}

// SetDateRange stores r verbatim. Rejecting start > end is the caller's job.
func (s *Store) SetDateRange(r model.DateRange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.DateRange = r
}

func (s *Store) SetSelectedRegion(region util.Optional[string]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.SelectedRegion = region
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.state
	snap.AnalyticsSnapshot = s.state.AnalyticsSnapshot.Clone()
	return snap
}

func fetchErrorMessage(err error) string {
	if errors.Is(err, backend.ErrFetchFailed) {
		return "Failed to fetch analytics: " + backend.ErrFetchFailed.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "Failed to fetch analytics: the request was cancelled"
	}
	return "Failed to fetch analytics"
}
