package backend

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"admindash/internal/model"

	"golang.org/x/crypto/bcrypt"
)

type MockOptions struct {
	Latency time.Duration
	// FailureRate in [0, 1] is the share of fetches that fail with ErrFetchFailed.
	FailureRate float64
	// Random defaults to math/rand/v2 Float64.
	Random func() float64
}

type Credentials struct {
	Username     string
	PasswordHash []byte
}

// Mock implements UserSource, AnalyticsSource and CredentialChecker.
type Mock struct {
	logger      *slog.Logger
	opts        MockOptions
	credentials Credentials
}

func NewMock(logger *slog.Logger, opts MockOptions, credentials Credentials) *Mock {
	if opts.Random == nil {
		opts.Random = rand.Float64
	}
	return &Mock{logger: logger, opts: opts, credentials: credentials}
}

// HashPassword hashes a plain admin password for Credentials.
func HashPassword(password string, cost int) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

func (m *Mock) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := m.respond(ctx, true); err != nil {
		return nil, err
	}
	return SeedUsers(), nil
}

func (m *Mock) GetAnalytics(ctx context.Context, query model.AnalyticsQuery) (model.AnalyticsSnapshot, error) {
	m.logger.DebugContext(ctx, "Fetching analytics",
		"start", query.DateRange.Start,
		"end", query.DateRange.End,
		"region", query.Region.UnwrapOr("all"),
	)

	if err := m.respond(ctx, true); err != nil {
		return model.AnalyticsSnapshot{}, err
	}
	return SeedAnalytics(), nil
}

func (m *Mock) CheckCredentials(ctx context.Context, username, password string) (model.AuthUser, error) {
	if err := m.respond(ctx, false); err != nil {
		return model.AuthUser{}, err
	}

	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(m.credentials.Username)) == 1
	// Always run bcrypt so unknown usernames cost the same as wrong passwords.
	passwordErr := bcrypt.CompareHashAndPassword(m.credentials.PasswordHash, []byte(password))
	if !usernameOK || passwordErr != nil {
		return model.AuthUser{}, ErrInvalidCredentials
	}

	return model.AuthUser{Username: username}, nil
}

// respond waits out the simulated latency and optionally injects a failure.
func (m *Mock) respond(ctx context.Context, mayFail bool) error {
	if m.opts.Latency > 0 {
		timer := time.NewTimer(m.opts.Latency)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}

	if mayFail && m.opts.FailureRate > 0 && m.opts.Random() < m.opts.FailureRate {
		return ErrFetchFailed
	}
	return nil
}
