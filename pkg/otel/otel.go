package otel

import (
	"context"
	"errors"
	"net/http"

	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.38.0"
)

type shutdownFunc func(context.Context) error

// Setup installs the global meter provider and, with telemetry enabled, OTLP
// exporters for logs and traces. It returns the metrics scrape handler and a
// function flushing all exporters.
func Setup(ctx context.Context, service, version string) (http.Handler, func(context.Context) error, error) {
	resource, err := sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewSchemaless(
			semconv.ServiceName(service),
			semconv.ServiceVersion(version),
		),
	)

	if err != nil {
		return nil, nil, err
	}

	var shutdowns []shutdownFunc

	shutdown := func(ctx context.Context) error {
		var result error

		for _, s := range shutdowns {
			result = errors.Join(result, s(ctx))
		}

		return result
	}

	handler, meterShutdown, err := setupMeter(ctx, resource, EnableTelemetry)

	if err != nil {
		return nil, nil, err
	}

	shutdowns = append(shutdowns, meterShutdown)

	if !EnableTelemetry {
		return handler, shutdown, nil
	}

	loggerShutdown, err := setupLogger(ctx, resource)

	if err != nil {
		return nil, nil, errors.Join(err, shutdown(ctx))
	}

	shutdowns = append(shutdowns, loggerShutdown)

	tracerShutdown, err := setupTracer(ctx, resource)

	if err != nil {
		return nil, nil, errors.Join(err, shutdown(ctx))
	}

	shutdowns = append(shutdowns, tracerShutdown)

	return handler, shutdown, nil
}
