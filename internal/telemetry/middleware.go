package telemetry

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	localsContext = "otel.ctx"
	localsSpan    = "otel.span"
)

// FiberMiddleware returns a Fiber middleware that creates spans for HTTP requests
func FiberMiddleware(serviceName string) fiber.Handler {
	tracer := otel.Tracer(serviceName)

	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), &fiberCarrier{c: c})

		ctx, span := tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.url", c.OriginalURL()),
				attribute.String("http.user_agent", c.Get(fiber.HeaderUserAgent)),
				attribute.String("http.remote_addr", c.IP()),
			),
		)
		defer span.End()

		c.Locals(localsContext, ctx)
		c.Locals(localsSpan, span)
		c.SetUserContext(ctx)

		err := c.Next()

		// the route is only known once routing has happened
		route := c.Route().Path
		span.SetName(c.Method() + " " + route)
		statusCode := c.Response().StatusCode()
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", statusCode),
			attribute.Int("http.response_size", len(c.Response().Body())),
		)

		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case statusCode >= 500:
			span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(statusCode))
		default:
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}

// SpanFromFiber extracts the request span from the Fiber context
func SpanFromFiber(c *fiber.Ctx) trace.Span {
	if span, ok := c.Locals(localsSpan).(trace.Span); ok {
		return span
	}
	return trace.SpanFromContext(context.Background())
}

// ContextFromFiber returns the traced request context, or the user context
// when tracing is not installed.
func ContextFromFiber(c *fiber.Ctx) context.Context {
	if ctx, ok := c.Locals(localsContext).(context.Context); ok {
		return ctx
	}
	return c.UserContext()
}

// fiberCarrier adapts Fiber context to OpenTelemetry propagation.TextMapCarrier
type fiberCarrier struct {
	c *fiber.Ctx
}

func (fc *fiberCarrier) Get(key string) string {
	return fc.c.Get(key)
}

func (fc *fiberCarrier) Set(key, value string) {
	fc.c.Set(key, value)
}

func (fc *fiberCarrier) Keys() []string {
	keys := make([]string, 0)
	fc.c.Request().Header.VisitAll(func(key, _ []byte) {
		keys = append(keys, string(key))
	})
	return keys
}
