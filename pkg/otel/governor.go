package otel

import (
	"context"

	"github.com/adrianliechti/narrator/pkg/governor"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// ObserveGovernor exports governor occupancy and the number of open
// streaming sessions as gauges.
func ObserveGovernor(g *governor.Governor, sessions func() int) error {
	meter := otel.Meter(instrumentationName)

	active, err := meter.Int64ObservableGauge("narrator.governor.active",
		metric.WithDescription("Jobs currently calling upstream"),
	)

	if err != nil {
		return err
	}

	queued, err := meter.Int64ObservableGauge("narrator.governor.queued",
		metric.WithDescription("Admitted jobs waiting for a slot"),
	)

	if err != nil {
		return err
	}

	capacity, err := meter.Int64ObservableGauge("narrator.governor.capacity",
		metric.WithDescription("Maximum number of admitted jobs"),
	)

	if err != nil {
		return err
	}

	open, err := meter.Int64ObservableGauge("narrator.stream.sessions",
		metric.WithDescription("Open streaming sessions"),
	)

	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		status := g.Status()

		o.ObserveInt64(active, int64(status.Active))
		o.ObserveInt64(queued, int64(status.Queued))
		o.ObserveInt64(capacity, int64(status.MaxQueueSize))

		if sessions != nil {
			o.ObserveInt64(open, int64(sessions()))
		}

		return nil
	}, active, queued, capacity, open)

	return err
}
