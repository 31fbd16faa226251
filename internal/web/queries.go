package web

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"admindash/internal/analytics"
	"admindash/internal/model"
	"admindash/internal/store"
	"admindash/internal/users"
	"admindash/internal/util"
	"admindash/internal/validator"

	"github.com/gofiber/fiber/v2"
)

// applyUsersQuery turns ?q= and ?page= into store actions. A search always
// resets to the first page; page is applied after it. Rejected input leaves
// the store untouched.
func applyUsersQuery(c *fiber.Ctx, v *validator.Validator, s *users.Store) error {
	var q validator.UsersQuery
	if err := c.QueryParser(&q); err != nil {
		return &validator.ValidationError{Field: "query", Message: "page must be a number"}
	}
	if err := v.Validate(q); err != nil {
		return err
	}

	if c.Context().QueryArgs().Has("q") {
		s.Filter(q.Search)
	}
	if q.Page > 0 {
		s.SetPage(q.Page)
	}
	return nil
}

// ensureUsersLoaded fetches once when the store has never loaded. A failed
// fetch is left on the store for the page to show.
func ensureUsersLoaded(ctx context.Context, s *users.Store, logger *slog.Logger) users.State {
	state := s.Snapshot()
	if state.Loaded() || state.Loading || state.Error != "" {
		return state
	}

	if err := s.Fetch(ctx); err != nil && !errors.Is(err, store.ErrSuperseded) {
		logger.WarnContext(ctx, "Users fetch failed", "error", err)
	}
	return s.Snapshot()
}

type analyticsForm struct {
	Start string
	End   string
}

// applyAnalyticsQuery validates ?start=&end=&region= and stores them. The
// returned form echoes what the user typed so a rejected range can be shown.
func applyAnalyticsQuery(c *fiber.Ctx, v *validator.Validator, s *analytics.Store) (analyticsForm, error) {
	state := s.Snapshot()
	form := analyticsForm{
		Start: formatDate(state.DateRange.Start),
		End:   formatDate(state.DateRange.End),
	}

	args := c.Context().QueryArgs()
	if !args.Has("start") && !args.Has("end") && !args.Has("region") {
		return form, nil
	}

	rawStart, rawEnd := c.Query("start"), c.Query("end")
	if rawStart != "" {
		form.Start = rawStart
	}
	if rawEnd != "" {
		form.End = rawEnd
	}
	region := c.Query("region")

	start, end, err := validator.ParseDateRange(rawStart, rawEnd, [2]time.Time{state.DateRange.Start, state.DateRange.End})
	if err != nil {
		return form, err
	}
	if err := v.Validate(validator.DateRangeRequest{Start: start, End: end, Region: region}); err != nil {
		return form, err
	}

	s.SetDateRange(model.DateRange{Start: start, End: end})
	s.SetSelectedRegion(util.OptionalString(region))
	return form, nil
}

// ensureAnalyticsFresh fetches when the snapshot does not match the stored
// query, which is how the dashboard reacts to a changed filter.
func ensureAnalyticsFresh(ctx context.Context, s *analytics.Store, logger *slog.Logger) analytics.State {
	state := s.Snapshot()
	if !state.Stale() || state.Loading {
		return state
	}

	if err := s.Fetch(ctx, state.Query()); err != nil && !errors.Is(err, store.ErrSuperseded) {
		logger.WarnContext(ctx, "Analytics fetch failed", "error", err)
	}
	return s.Snapshot()
}

func formatDate(t time.Time) string {
	return t.UTC().Format(validator.DateLayout)
}
