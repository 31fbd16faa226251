package analytics

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"admindash/internal/backend"
	"admindash/internal/model"
	"admindash/internal/store"
	"admindash/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	snapshot model.AnalyticsSnapshot
	err      error
	queries  []model.AnalyticsQuery
}

func (f *fakeSource) GetAnalytics(_ context.Context, q model.AnalyticsQuery) (model.AnalyticsSnapshot, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return model.AnalyticsSnapshot{}, f.err
	}
	return f.snapshot, nil
}

type gatedSource struct {
	calls chan chan model.AnalyticsSnapshot
}

func (g *gatedSource) GetAnalytics(ctx context.Context, _ model.AnalyticsQuery) (model.AnalyticsSnapshot, error) {
	reply := make(chan model.AnalyticsSnapshot)
	g.calls <- reply
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return model.AnalyticsSnapshot{}, ctx.Err()
	}
}

var fixedNow = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func newTestStore(source backend.AnalyticsSource) *Store {
	return NewStore(slog.New(slog.NewTextHandler(io.Discard, nil)), source, nil, fixedNow)
}

func TestStore_InitialState(t *testing.T) {
	s := newTestStore(&fakeSource{})
	snap := s.Snapshot()

	assert.Equal(t, store.PhaseIdle, snap.Phase)
	assert.Equal(t, fixedNow, snap.DateRange.End)
	assert.Equal(t, fixedNow.AddDate(0, 0, -180), snap.DateRange.Start)
	assert.False(t, snap.SelectedRegion.IsSet)
	assert.True(t, snap.Stale())
	assert.NotNil(t, snap.UsersByRegion)
}

func TestStore_FetchReplacesSnapshot(t *testing.T) {
	source := &fakeSource{snapshot: backend.SeedAnalytics()}
	s := newTestStore(source)

	query := s.Snapshot().Query()
	require.NoError(t, s.Fetch(context.Background(), query))

	snap := s.Snapshot()
	assert.Equal(t, 1000, snap.TotalUsers)
	assert.Equal(t, 750, snap.ActiveUsers)
	assert.Equal(t, 50, snap.DeletedUsers)
	assert.Len(t, snap.RegistrationTrend, 3)
	assert.Equal(t, store.PhaseFulfilled, snap.Phase)
	assert.False(t, snap.Loading)
	assert.False(t, snap.Stale())
	assert.Equal(t, []model.AnalyticsQuery{query}, source.queries)

	// a second payload replaces rather than merges
	source.snapshot = model.AnalyticsSnapshot{TotalUsers: 1, UsersByRegion: []model.RegionCount{{Region: "Asia", Count: 1}}}
	require.NoError(t, s.Fetch(context.Background(), query))

	snap = s.Snapshot()
	assert.Equal(t, 1, snap.TotalUsers)
	assert.Equal(t, 0, snap.ActiveUsers)
	assert.Empty(t, snap.RegistrationTrend)
	assert.Len(t, snap.UsersByRegion, 1)
}

func TestStore_FetchFailure(t *testing.T) {
	source := &fakeSource{snapshot: backend.SeedAnalytics()}
	s := newTestStore(source)
	require.NoError(t, s.Fetch(context.Background(), s.Snapshot().Query()))

	source.err = backend.ErrFetchFailed
	err := s.Fetch(context.Background(), s.Snapshot().Query())
	require.ErrorIs(t, err, backend.ErrFetchFailed)

	snap := s.Snapshot()
	assert.Equal(t, store.PhaseRejected, snap.Phase)
	assert.Contains(t, snap.Error, "Failed to fetch analytics")
	assert.Equal(t, 1000, snap.TotalUsers, "prior data is kept")

	source.err = nil
	require.NoError(t, s.Fetch(context.Background(), s.Snapshot().Query()))
	assert.Empty(t, s.Snapshot().Error)
}

func TestStore_SettersDoNotFetch(t *testing.T) {
	source := &fakeSource{snapshot: backend.SeedAnalytics()}
	s := newTestStore(source)
	require.NoError(t, s.Fetch(context.Background(), s.Snapshot().Query()))

	// stored verbatim, even when inverted
	inverted := model.DateRange{Start: fixedNow, End: fixedNow.AddDate(0, -1, 0)}
	s.SetDateRange(inverted)
	s.SetSelectedRegion(util.Some("Europe"))

	snap := s.Snapshot()
	assert.Equal(t, inverted, snap.DateRange)
	assert.Equal(t, util.Some("Europe"), snap.SelectedRegion)
	assert.True(t, snap.Stale())
	assert.Len(t, source.queries, 1)

	s.SetSelectedRegion(util.None[string]())
	assert.False(t, s.Snapshot().SelectedRegion.IsSet)
}

func TestStore_SupersededFetchIsDiscarded(t *testing.T) {
	source := &gatedSource{calls: make(chan chan model.AnalyticsSnapshot)}
	s := newTestStore(source)

	firstErr := make(chan error, 1)
	go func() { firstErr <- s.Fetch(context.Background(), s.Snapshot().Query()) }()
	first := <-source.calls

	europe := model.AnalyticsQuery{DateRange: DefaultRange(fixedNow), Region: util.Some("Europe")}
	secondErr := make(chan error, 1)
	go func() { secondErr <- s.Fetch(context.Background(), europe) }()
	second := <-source.calls

	second <- model.AnalyticsSnapshot{TotalUsers: 2}
	require.NoError(t, <-secondErr)

	first <- model.AnalyticsSnapshot{TotalUsers: 1}
	assert.ErrorIs(t, <-firstErr, store.ErrSuperseded)

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.TotalUsers)
	assert.Equal(t, util.Some(europe), snap.FetchedWith)
}

func TestStore_SnapshotIsIsolated(t *testing.T) {
	s := newTestStore(&fakeSource{snapshot: backend.SeedAnalytics()})
	require.NoError(t, s.Fetch(context.Background(), s.Snapshot().Query()))

	snap := s.Snapshot()
	snap.UsersByRegion[0].Count = 0

	assert.Equal(t, 400, s.Snapshot().UsersByRegion[0].Count)
}
