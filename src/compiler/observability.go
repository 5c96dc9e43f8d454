package compiler

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Instrumentation library name
	instrumentationName    = "github.com/relgraph/relgraph/src/compiler"
	instrumentationVersion = "0.1.0" // Will be replaced by build-time injection
)

// ObservabilityConfig controls telemetry collection
type ObservabilityConfig struct {
	// EnableTracing enables OpenTelemetry distributed tracing
	EnableTracing bool

	// EnableMetrics enables OpenTelemetry metrics collection
	EnableMetrics bool

	// TracingAttributes are additional attributes to add to all spans
	TracingAttributes []attribute.KeyValue

	// MetricAttributes are additional attributes to add to all metrics
	MetricAttributes []attribute.KeyValue
}

// DefaultObservabilityConfig returns default observability configuration
func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{
		EnableTracing: true,
		EnableMetrics: true,
		TracingAttributes: []attribute.KeyValue{
			attribute.String("compiler.name", "relgraph"),
			attribute.String("compiler.version", instrumentationVersion),
		},
		MetricAttributes: []attribute.KeyValue{
			attribute.String("compiler.name", "relgraph"),
		},
	}
}

// observabilityInstruments holds OpenTelemetry instruments
type observabilityInstruments struct {
	tracer trace.Tracer
	meter  metric.Meter

	// Metrics
	compileDuration metric.Float64Histogram
	compileCount    metric.Int64Counter
	compileErrors   metric.Int64Counter
	clausesCompiled metric.Int64Counter
	cacheHits       metric.Int64Counter
	labelsCreated   metric.Int64Counter
}

// initObservability initializes OpenTelemetry instruments
func initObservability() *observabilityInstruments {
	tracer := otel.Tracer(instrumentationName, trace.WithInstrumentationVersion(instrumentationVersion))
	meter := otel.Meter(instrumentationName, metric.WithInstrumentationVersion(instrumentationVersion))

	instruments := &observabilityInstruments{
		tracer: tracer,
		meter:  meter,
	}

	var err error

	instruments.compileDuration, err = meter.Float64Histogram(
		"compiler.compile.duration",
		metric.WithDescription("Duration of query compilations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		otel.Handle(err)
	}

	instruments.compileCount, err = meter.Int64Counter(
		"compiler.compile.count",
		metric.WithDescription("Number of queries compiled"),
	)
	if err != nil {
		otel.Handle(err)
	}

	instruments.compileErrors, err = meter.Int64Counter(
		"compiler.compile.errors",
		metric.WithDescription("Number of compilation errors"),
	)
	if err != nil {
		otel.Handle(err)
	}

	instruments.clausesCompiled, err = meter.Int64Counter(
		"compiler.clauses.count",
		metric.WithDescription("Number of clauses compiled"),
	)
	if err != nil {
		otel.Handle(err)
	}

	instruments.cacheHits, err = meter.Int64Counter(
		"compiler.cache.hits",
		metric.WithDescription("Number of plan cache hits"),
	)
	if err != nil {
		otel.Handle(err)
	}

	instruments.labelsCreated, err = meter.Int64Counter(
		"compiler.labels.created",
		metric.WithDescription("Number of labels auto-created by CREATE clauses"),
	)
	if err != nil {
		otel.Handle(err)
	}

	return instruments
}

// spanContext holds span-specific context information
type spanContext struct {
	span      trace.Span
	startTime time.Time
}

// startCompileSpan creates a new tracing span for a compilation
func (oi *observabilityInstruments) startCompileSpan(ctx context.Context, graphName string, clauseCount int, config *ObservabilityConfig) (context.Context, *spanContext) {
	if !config.EnableTracing {
		return ctx, &spanContext{startTime: time.Now()}
	}

	attrs := make([]attribute.KeyValue, 0, len(config.TracingAttributes)+2)
	attrs = append(attrs, config.TracingAttributes...)
	attrs = append(attrs,
		attribute.String("graph.name", graphName),
		attribute.Int("query.clause_count", clauseCount),
	)

	ctx, span := oi.tracer.Start(ctx, "compiler.compile",
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return ctx, &spanContext{
		span:      span,
		startTime: time.Now(),
	}
}

// finishCompileSpan completes a compilation span and records metrics
func (oi *observabilityInstruments) finishCompileSpan(spanCtx *spanContext, clauseCount int, err error, config *ObservabilityConfig) {
	duration := time.Since(spanCtx.startTime)

	if config.EnableMetrics {
		attrs := metric.WithAttributes(config.MetricAttributes...)

		oi.compileDuration.Record(context.Background(), duration.Seconds(), attrs)

		statusAttr := attribute.String("compile.status", "success")
		if err != nil {
			statusAttr = attribute.String("compile.status", "error")
			codeAttr := attribute.String("compile.error_code", string(CodeOf(err)))
			oi.compileErrors.Add(context.Background(), 1, metric.WithAttributes(append(config.MetricAttributes, statusAttr, codeAttr)...))
		} else {
			oi.compileCount.Add(context.Background(), 1, metric.WithAttributes(append(config.MetricAttributes, statusAttr)...))
			oi.clausesCompiled.Add(context.Background(), int64(clauseCount), attrs)
		}
	}

	if config.EnableTracing && spanCtx.span != nil {
		spanCtx.span.SetAttributes(
			attribute.Float64("compiler.compile.duration_ms", float64(duration.Nanoseconds())/1e6),
		)

		if err != nil {
			spanCtx.span.RecordError(err)
			spanCtx.span.SetStatus(codes.Error, err.Error())
		} else {
			spanCtx.span.SetStatus(codes.Ok, "")
		}

		spanCtx.span.End()
	}
}

// recordCacheHit records a plan cache hit
func (oi *observabilityInstruments) recordCacheHit(config *ObservabilityConfig) {
	if !config.EnableMetrics {
		return
	}
	oi.cacheHits.Add(context.Background(), 1, metric.WithAttributes(config.MetricAttributes...))
}

// recordLabelCreated records an auto-created label
func (oi *observabilityInstruments) recordLabelCreated(kind string, config *ObservabilityConfig) {
	if !config.EnableMetrics {
		return
	}
	kindAttr := attribute.String("label.kind", kind)
	oi.labelsCreated.Add(context.Background(), 1, metric.WithAttributes(append(config.MetricAttributes, kindAttr)...))
}
