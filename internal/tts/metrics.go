package tts

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/example/go-melotts/internal/tts"

type pipelineMetrics struct {
	requests   metric.Int64Counter
	sentences  metric.Int64Counter
	windows    metric.Int64Counter
	samples    metric.Int64Counter
	encodeTime metric.Float64Histogram
	decodeTime metric.Float64Histogram
	synthTime  metric.Float64Histogram
}

func newPipelineMetrics(meter metric.Meter) pipelineMetrics {
	return pipelineMetrics{
		requests: int64Counter(meter, "melotts.synth.requests",
			"Synthesis calls by outcome"),
		sentences: int64Counter(meter, "melotts.synth.sentences",
			"Sentences encoded"),
		windows: int64Counter(meter, "melotts.synth.decoder_windows",
			"Decoder invocations"),
		samples: int64Counter(meter, "melotts.synth.samples",
			"Audio samples produced"),
		encodeTime: float64Histogram(meter, "melotts.synth.encode.duration",
			"Encoder latency per sentence"),
		decodeTime: float64Histogram(meter, "melotts.synth.decode.duration",
			"Decoder latency per window"),
		synthTime: float64Histogram(meter, "melotts.synth.duration",
			"End-to-end synthesis latency"),
	}
}

func int64Counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		slog.Warn("failed to initialize metric", "name", name, "error", err)
		return noop.Int64Counter{}
	}
	return c
}

func float64Histogram(meter metric.Meter, name, desc string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil {
		slog.Warn("failed to initialize metric", "name", name, "error", err)
		return noop.Float64Histogram{}
	}
	return h
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

func defaultMeter() metric.Meter {
	return otel.Meter(instrumentationName)
}
