package otel

import (
	"context"
	"time"

	"github.com/adrianliechti/narrator/pkg/provider"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Synthesizer interface {
	Observable
	provider.Synthesizer
}

type observableSynthesizer struct {
	model    string
	provider string

	synthesizer provider.Synthesizer

	durationMetric metric.Float64Histogram
	bytesMetric    metric.Int64Counter
	errorsMetric   metric.Int64Counter
}

func NewSynthesizer(provider, model string, p provider.Synthesizer) Synthesizer {
	meter := otel.Meter(instrumentationName)

	durationMetric, _ := meter.Float64Histogram("narrator.synthesis.duration",
		metric.WithDescription("Duration of upstream synthesis calls"),
		metric.WithUnit("s"),
	)

	bytesMetric, _ := meter.Int64Counter("narrator.synthesis.audio",
		metric.WithDescription("Audio bytes received from upstream"),
		metric.WithUnit("By"),
	)

	errorsMetric, _ := meter.Int64Counter("narrator.synthesis.errors",
		metric.WithDescription("Failed upstream synthesis calls"),
	)

	return &observableSynthesizer{
		synthesizer: p,

		model:    model,
		provider: provider,

		durationMetric: durationMetric,
		bytesMetric:    bytesMetric,
		errorsMetric:   errorsMetric,
	}
}

func (p *observableSynthesizer) otelSetup() {
}

func (p *observableSynthesizer) Synthesize(ctx context.Context, content string, options *provider.SynthesizeOptions) (*provider.Synthesis, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "synthesize "+p.model, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	timestamp := time.Now()

	attrs := KeyValues([]KeyValue{
		String("provider.name", p.provider),
		String("provider.model", p.model),
	}, EndUserAttrs(ctx))

	span.SetAttributes(attrs...)
	span.SetAttributes(Int("synthesis.input_length", len([]rune(content))))

	result, err := p.synthesizer.Synthesize(ctx, content, options)

	p.durationMetric.Record(ctx, time.Since(timestamp).Seconds(), metric.WithAttributes(attrs...))

	if err != nil {
		perr := provider.AsError(err)

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		p.errorsMetric.Add(ctx, 1, metric.WithAttributes(append(attrs,
			String("error.type", perr.Kind.String()),
			Int("http.response.status_code", perr.StatusCode),
		)...))

		return nil, err
	}

	p.bytesMetric.Add(ctx, int64(len(result.Content)), metric.WithAttributes(attrs...))

	return result, nil
}
