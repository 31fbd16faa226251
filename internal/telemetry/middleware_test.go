package telemetry

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiberMiddleware_ExposesContextAndSpan(t *testing.T) {
	app := fiber.New()
	app.Use(FiberMiddleware("admindash-test"))

	var sawSpan, sawContext bool
	app.Get("/ping", func(c *fiber.Ctx) error {
		sawSpan = SpanFromFiber(c) != nil
		sawContext = ContextFromFiber(c) != nil
		return c.SendString("pong")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, sawSpan)
	assert.True(t, sawContext)
}

func TestFiberCarrier_Keys(t *testing.T) {
	app := fiber.New()
	var keys []string
	app.Get("/", func(c *fiber.Ctx) error {
		keys = (&fiberCarrier{c: c}).Keys()
		return nil
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	_, err := app.Test(req)
	require.NoError(t, err)

	assert.Contains(t, keys, "Traceparent")
}
