package tracing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	ServiceName    = "farm-service"
	ServiceVersion = "1.0.0"

	tracesPath    = "/v1/traces"
	exportTimeout = 5 * time.Second
	maxQueueSize  = 2048
)

// Options configures the OTLP/HTTP exporter
type Options struct {
	Endpoint   string
	AuthHeader string
}

// ShutdownFunc flushes and stops the tracer provider
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup installs a global tracer provider exporting over OTLP/HTTP.
// With no endpoint the global no-op provider stays in place.
func Setup(ctx context.Context, opts Options) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if opts.Endpoint == "" {
		return noopShutdown, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx, exporterOptions(opts)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter,
			sdktrace.WithExportTimeout(exportTimeout),
			sdktrace.WithMaxQueueSize(maxQueueSize),
		)),
	)
	otel.SetTracerProvider(provider)

	return func(ctx context.Context) error {
		return errors.Join(provider.ForceFlush(ctx), provider.Shutdown(ctx))
	}, nil
}

func exporterOptions(opts Options) []otlptracehttp.Option {
	var out []otlptracehttp.Option
	if strings.Contains(opts.Endpoint, "://") {
		out = append(out, otlptracehttp.WithEndpointURL(strings.TrimRight(opts.Endpoint, "/")+tracesPath))
	} else {
		out = append(out, otlptracehttp.WithEndpoint(opts.Endpoint), otlptracehttp.WithURLPath(tracesPath))
	}
	if opts.AuthHeader != "" {
		out = append(out, otlptracehttp.WithHeaders(map[string]string{"Authorization": opts.AuthHeader}))
	}
	return out
}
