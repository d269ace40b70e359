package observability

import (
	"context"
	"time"

	"photoshoot-api/internal/common/logger"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Observability struct {
	serviceName    string
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	batchCounter   otelmetric.Int64Counter
	batchDuration  otelmetric.Float64Histogram
	attemptCounter otelmetric.Int64Counter
}

type options struct {
	registerer     promclient.Registerer
	jaegerEndpoint string
	spanProcessors []sdktrace.SpanProcessor
	log            logger.Logger
}

// Option customises New.
type Option func(*options)

// WithRegisterer sends OTel metrics to reg instead of the default Prometheus
// registry.
func WithRegisterer(reg promclient.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithJaegerEndpoint exports spans to a Jaeger collector, e.g.
// http://localhost:14268/api/traces. Empty disables export.
func WithJaegerEndpoint(endpoint string) Option {
	return func(o *options) { o.jaegerEndpoint = endpoint }
}

// WithSpanProcessor attaches an extra span processor (tests use a recorder).
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) { o.spanProcessors = append(o.spanProcessors, sp) }
}

// WithLogger reports exporter setup problems.
func WithLogger(log logger.Logger) Option {
	return func(o *options) { o.log = log }
}

func New(serviceName string, opts ...Option) *Observability {
	o := &options{log: logger.NewNoOpLogger()}
	for _, opt := range opts {
		opt(o)
	}

	obs := &Observability{serviceName: serviceName}
	obs.setupTracing(o)

	var exporterOpts []prometheus.Option
	if o.registerer != nil {
		exporterOpts = append(exporterOpts, prometheus.WithRegisterer(o.registerer))
	}
	exporter, err := prometheus.New(exporterOpts...)
	if err != nil {
		o.log.Error("failed to create prometheus exporter", map[string]interface{}{"error": err})
		return obs
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	batchCounter, _ := meter.Int64Counter(
		"photoshoot_batches",
		otelmetric.WithDescription("Number of generation batches processed"),
	)

	batchDuration, _ := meter.Float64Histogram(
		"photoshoot_batch_duration",
		otelmetric.WithDescription("Generation batch duration"),
		otelmetric.WithUnit("ms"),
	)

	attemptCounter, _ := meter.Int64Counter(
		"photoshoot_attempts",
		otelmetric.WithDescription("Backend calls made while generating images"),
	)

	obs.meterProvider = provider
	obs.meter = meter
	obs.batchCounter = batchCounter
	obs.batchDuration = batchDuration
	obs.attemptCounter = attemptCounter
	return obs
}

func (o *Observability) setupTracing(opts *options) {
	if opts.jaegerEndpoint == "" && len(opts.spanProcessors) == 0 {
		return
	}

	res := resource.NewSchemaless(attribute.String("service.name", o.serviceName))
	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	if opts.jaegerEndpoint != "" {
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(opts.jaegerEndpoint)))
		if err != nil {
			opts.log.Error("failed to create jaeger exporter", map[string]interface{}{
				"error":    err,
				"endpoint": opts.jaegerEndpoint,
			})
		} else {
			tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
		}
	}
	for _, sp := range opts.spanProcessors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}

	o.tracerProvider = sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(o.tracerProvider)
	o.tracer = o.tracerProvider.Tracer(o.serviceName)
}

// StartSpan opens a span under ctx. Without a configured tracer the global
// (no-op by default) provider is used, so callers never need a nil check.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("photoshoot-api")
	if o != nil && o.tracer != nil {
		tracer = o.tracer
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordBatch(ctx context.Context, status string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("status", status))
	if o.batchCounter != nil {
		o.batchCounter.Add(ctx, 1, attrs)
	}
	if o.batchDuration != nil {
		o.batchDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordAttempt(ctx context.Context, model, outcome string) {
	if o == nil || o.attemptCounter == nil {
		return
	}
	o.attemptCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("model", model),
		attribute.String("outcome", outcome),
	))
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
