package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"admindash/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RecordFetch(t *testing.T) {
	r := NewRegistry()

	r.RecordFetch(context.Background(), "users", store.OutcomeFulfilled, 100*time.Millisecond)
	r.RecordFetch(context.Background(), "users", store.OutcomeFulfilled, 200*time.Millisecond)
	r.RecordFetch(context.Background(), "users", store.OutcomeRejected, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.StoreFetchesTotal.WithLabelValues("users", "fulfilled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.StoreFetchesTotal.WithLabelValues("users", "rejected")))
}

func TestRegistry_RecordAction(t *testing.T) {
	r := NewRegistry()

	r.RecordAction(context.Background(), "users", "delete")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.StoreActionsTotal.WithLabelValues("users", "delete")))
}

func TestRegistry_MiddlewareAndHandler(t *testing.T) {
	r := NewRegistry()

	app := fiber.New()
	app.Use(r.Middleware())
	app.Get("/metrics", r.Handler())
	app.Get("/users/:id", func(c *fiber.Ctx) error {
		return c.SendString(c.Params("id"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/users/7", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.HTTPRequestsTotal.WithLabelValues("GET", "/users/:id", "200")))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "admindash_http_requests_total")
}

func TestRegistry_RecordLogin(t *testing.T) {
	r := NewRegistry()

	r.RecordLogin(context.Background(), "admin", true)
	r.RecordLogin(context.Background(), "admin", false)
	r.RecordLogin(context.Background(), "admin", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.LoginsTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.LoginsTotal.WithLabelValues("failure")))
}
