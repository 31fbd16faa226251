package monitoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"admindash/internal/config"
	"admindash/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials/insecure"
)

const instrumentationName = "admindash"

// Telemetry is what the rest of the dashboard needs from the OTel pipeline:
// store fetch and action recording, login counts and a flush on exit.
type Telemetry interface {
	store.Recorder
	RecordLogin(ctx context.Context, username string, success bool)
	Shutdown(ctx context.Context) error
}

// OpenTelemetry owns the trace, log and meter providers plus the dashboard's
// instruments. All recorders are no-ops while telemetry is disabled.
type OpenTelemetry struct {
	tracerProvider *trace.TracerProvider
	loggerProvider *sdklog.LoggerProvider
	meterProvider  *sdkmetric.MeterProvider
	config         config.TelemetryConfig

	fetches       metric.Int64Counter
	fetchDuration metric.Float64Histogram
	actions       metric.Int64Counter
	logins        metric.Int64Counter
}

// NewOpenTelemetry sets up OTLP gRPC exporters for traces, logs and metrics.
// With telemetry disabled it returns an instance whose recorders are no-ops.
func NewOpenTelemetry(ctx context.Context, cfg config.TelemetryConfig) (*OpenTelemetry, error) {
	if !cfg.Enabled || cfg.ExporterURL == "" {
		slog.Info("Telemetry disabled or no exporter URL provided")
		return &OpenTelemetry{config: cfg}, nil
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	)

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.ExporterURL),
		otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	logExporter, err := otlploggrpc.New(ctx,
		otlploggrpc.WithEndpoint(cfg.ExporterURL),
		otlploggrpc.WithTLSCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create log exporter: %w", err)
	}

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.ExporterURL),
		otlpmetricgrpc.WithTLSCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(traceExporter),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(cfg.SamplingRatio))),
	)

	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
			sdkmetric.WithInterval(10*time.Second))),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	global.SetLoggerProvider(lp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tel := &OpenTelemetry{
		tracerProvider: tp,
		loggerProvider: lp,
		meterProvider:  mp,
		config:         cfg,
	}

	if err := tel.initMetrics(mp.Meter(instrumentationName)); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	slog.Info("Telemetry initialized successfully",
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"environment", cfg.Environment,
		"endpoint", cfg.ExporterURL,
		"sampling_ratio", cfg.SamplingRatio,
	)

	return tel, nil
}

func (t *OpenTelemetry) initMetrics(meter metric.Meter) error {
	var err error

	t.fetches, err = meter.Int64Counter(
		"admindash_store_fetches_total",
		metric.WithDescription("Store fetches by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create fetches counter: %w", err)
	}

	t.fetchDuration, err = meter.Float64Histogram(
		"admindash_store_fetch_duration_seconds",
		metric.WithDescription("Time spent waiting on the data service"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create fetch duration histogram: %w", err)
	}

	t.actions, err = meter.Int64Counter(
		"admindash_store_actions_total",
		metric.WithDescription("Synchronous store actions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create actions counter: %w", err)
	}

	t.logins, err = meter.Int64Counter(
		"admindash_logins_total",
		metric.WithDescription("Login attempts by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create logins counter: %w", err)
	}

	return nil
}

// Shutdown flushes and stops every provider that was started. Errors from
// each provider are joined rather than stopping at the first.
func (t *OpenTelemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("trace provider shutdown: %w", err))
		}
	}

	if t.loggerProvider != nil {
		if err := t.loggerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("log provider shutdown: %w", err))
		}
	}

	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	return errors.Join(errs...)
}

// IsEnabled reports whether exporters were configured.
func (t *OpenTelemetry) IsEnabled() bool {
	return t.config.Enabled && t.tracerProvider != nil
}

// RecordFetch counts a store fetch by outcome and records its duration in seconds.
func (t *OpenTelemetry) RecordFetch(ctx context.Context, storeName string, outcome store.Outcome, elapsed time.Duration) {
	if !t.IsEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("store", storeName),
		attribute.String("outcome", string(outcome)),
	)
	t.fetches.Add(ctx, 1, attrs)
	t.fetchDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordAction counts a synchronous store mutation such as a filter or delete.
func (t *OpenTelemetry) RecordAction(ctx context.Context, storeName, action string) {
	if !t.IsEnabled() {
		return
	}

	t.actions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("store", storeName),
		attribute.String("action", action),
	))
}

// RecordLogin counts a login attempt. The username is only logged, never
// used as a metric attribute.
func (t *OpenTelemetry) RecordLogin(ctx context.Context, username string, success bool) {
	if !t.IsEnabled() {
		return
	}

	t.logins.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))

	slog.DebugContext(ctx, "Login metric recorded", "username", username, "success", success)
}

// OTelHandler is a slog.Handler that sends logs to OpenTelemetry
type OTelHandler struct {
	logger log.Logger
	opts   *slog.HandlerOptions
	attrs  []slog.Attr
	group  string
}

// NewOTelHandler returns a handler bound to the global logger provider.
// A nil opts logs at Info and above.
func NewOTelHandler(opts *slog.HandlerOptions) *OTelHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}

	return &OTelHandler{
		logger: global.GetLoggerProvider().Logger(instrumentationName + ".slog"),
		opts:   opts,
	}
}

// Enabled reports whether level passes the configured minimum.
func (h *OTelHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h.opts.Level != nil {
		return level >= h.opts.Level.Level()
	}
	return level >= slog.LevelInfo
}

// Handle converts record, with the handler's accumulated attributes and
// group prefix, into an OTel log record and emits it.
func (h *OTelHandler) Handle(ctx context.Context, record slog.Record) error {
	logRecord := log.Record{}
	logRecord.SetTimestamp(record.Time)
	logRecord.SetBody(log.StringValue(record.Message))
	logRecord.SetSeverity(convertSlogLevel(record.Level))
	logRecord.SetSeverityText(record.Level.String())

	if span := oteltrace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		logRecord.AddAttributes(
			log.String("trace_id", spanCtx.TraceID().String()),
			log.String("span_id", spanCtx.SpanID().String()),
			log.String("trace_flags", spanCtx.TraceFlags().String()),
		)
	}

	if h.opts.AddSource && record.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := fs.Next()
		if f.File != "" {
			logRecord.AddAttributes(
				log.String("code.filepath", f.File),
				log.String("code.function", f.Function),
				log.Int("code.lineno", f.Line),
			)
		}
	}

	for _, attr := range h.attrs {
		logRecord.AddAttributes(convertSlogAttr(h.group, attr))
	}
	record.Attrs(func(attr slog.Attr) bool {
		logRecord.AddAttributes(convertSlogAttr(h.group, attr))
		return true
	})

	h.logger.Emit(ctx, logRecord)

	return nil
}

// WithAttrs returns a copy of the handler that adds attrs to every record.
func (h *OTelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &OTelHandler{logger: h.logger, opts: h.opts, attrs: merged, group: h.group}
}

// WithGroup returns a copy of the handler that nests later attributes under
// name, joined to any existing group with a dot.
func (h *OTelHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &OTelHandler{logger: h.logger, opts: h.opts, attrs: h.attrs, group: group}
}

func convertSlogLevel(level slog.Level) log.Severity {
	switch {
	case level >= slog.LevelError:
		return log.SeverityError
	case level >= slog.LevelWarn:
		return log.SeverityWarn
	case level >= slog.LevelInfo:
		return log.SeverityInfo
	default:
		return log.SeverityDebug
	}
}

func convertSlogAttr(group string, attr slog.Attr) log.KeyValue {
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}

	switch attr.Value.Kind() {
	case slog.KindString:
		return log.String(key, attr.Value.String())
	case slog.KindInt64:
		return log.Int64(key, attr.Value.Int64())
	case slog.KindFloat64:
		return log.Float64(key, attr.Value.Float64())
	case slog.KindBool:
		return log.Bool(key, attr.Value.Bool())
	case slog.KindDuration:
		return log.Int64(key, attr.Value.Duration().Nanoseconds())
	case slog.KindTime:
		return log.String(key, attr.Value.Time().Format(time.RFC3339))
	default:
		return log.String(key, attr.Value.String())
	}
}
