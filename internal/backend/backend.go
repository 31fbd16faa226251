// Package backend is the seam between the dashboard stores and whatever serves
// their data. The only implementation today is Mock, which answers from seeded
// in-memory data after an artificial delay.
package backend

import (
	"context"
	"errors"

	"admindash/internal/model"
)

var (
	ErrFetchFailed        = errors.New("the data service did not respond")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// UserSource: request () -> sequence of User.
type UserSource interface {
	ListUsers(ctx context.Context) ([]model.User, error)
}

// AnalyticsSource: request {dateRange, region} -> AnalyticsSnapshot.
type AnalyticsSource interface {
	GetAnalytics(ctx context.Context, query model.AnalyticsQuery) (model.AnalyticsSnapshot, error)
}

type CredentialChecker interface {
	CheckCredentials(ctx context.Context, username, password string) (model.AuthUser, error)
}
