// Package store holds the pieces shared by the dashboard's state containers:
// the fetch lifecycle phases, request tokens and outcome recording.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrSuperseded is returned by a fetch whose result was discarded because a
// newer request for the same store was issued while it was in flight.
var ErrSuperseded = errors.New("store: result superseded by a newer request")

// Phase is the fetch lifecycle: idle -> pending -> fulfilled | rejected.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePending   Phase = "pending"
	PhaseFulfilled Phase = "fulfilled"
	PhaseRejected  Phase = "rejected"
)

// Sequence issues monotonically increasing request tokens.
// It is not safe for concurrent use; the owning store guards it with its own lock.
type Sequence struct {
	latest uint64
}

func (s *Sequence) Next() uint64 {
	s.latest++
	return s.latest
}

func (s *Sequence) IsLatest(token uint64) bool {
	return token == s.latest
}

type Outcome string

const (
	OutcomeFulfilled  Outcome = "fulfilled"
	OutcomeRejected   Outcome = "rejected"
	OutcomeSuperseded Outcome = "superseded"
)

// Recorder receives fetch outcomes and synchronous actions from the stores.
type Recorder interface {
	RecordFetch(ctx context.Context, store string, outcome Outcome, elapsed time.Duration)
	RecordAction(ctx context.Context, store string, action string)
}

type NopRecorder struct{}

func (NopRecorder) RecordFetch(context.Context, string, Outcome, time.Duration) {}
func (NopRecorder) RecordAction(context.Context, string, string)                {}

// Recorders fans out to every recorder in order.
type Recorders []Recorder

func (r Recorders) RecordFetch(ctx context.Context, store string, outcome Outcome, elapsed time.Duration) {
	for _, rec := range r {
		rec.RecordFetch(ctx, store, outcome, elapsed)
	}
}

func (r Recorders) RecordAction(ctx context.Context, store string, action string) {
	for _, rec := range r {
		rec.RecordAction(ctx, store, action)
	}
}

// OrNop returns rec, or a NopRecorder when rec is nil.
func OrNop(rec Recorder) Recorder {
	if rec == nil {
		return NopRecorder{}
	}
	return rec
}
