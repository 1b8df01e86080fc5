// Package telemetry wires OpenTelemetry tracing into the fx lifecycle.
package telemetry

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"

	"credgate/config"
	"credgate/internal/domain/lifecycle"
)

// Params defines the dependencies of the tracer provider
type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

// New returns an OTLP/HTTP exporting provider when telemetry is enabled with an endpoint.
// Otherwise it returns a no-op provider and leaves the global provider untouched.
// Pending spans are flushed on fx stop.
func New(params Params) (trace.TracerProvider, error) {
	cfg := params.Config.Telemetry
	if cfg == nil || !cfg.Enabled || cfg.Endpoint == "" {
		return noop.NewTracerProvider(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
	defer cancel()

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		return nil, errors.Wrap(err, "create otlp trace exporter")
	}

	serviceName := params.Config.Env.ServiceName
	if serviceName == "" {
		serviceName = "credgate"
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, errors.Wrap(err, "build otel resource")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Flushing traces")

			return errors.Wrap(tp.Shutdown(ctx), "shutdown tracer provider")
		},
	})

	params.Logger.Info("Tracing enabled", slog.String("endpoint", cfg.Endpoint))

	return tp, nil
}
