// Package telemetry installs the global OpenTelemetry trace and meter
// providers and exposes collected metrics in Prometheus format.
package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.30.0"

	"github.com/example/go-melotts/internal/config"
)

// Providers holds what Setup installed.
type Providers struct {
	Tracer  *sdktrace.TracerProvider
	Meter   *sdkmetric.MeterProvider
	Metrics http.Handler
}

// Shutdown flushes and stops both providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Meter != nil {
		if err := p.Meter.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if p.Tracer != nil {
		if err := p.Tracer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Setup builds the providers described by cfg and registers them globally.
// Trace output of the stdout exporter goes to stderr so stdout stays free
// for audio.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger *slog.Logger) (*Providers, error) {
	return setup(ctx, cfg, logger, os.Stderr)
}

func setup(ctx context.Context, cfg config.TelemetryConfig, logger *slog.Logger, traceOut io.Writer) (*Providers, error) {
	if logger == nil {
		logger = slog.Default()
	}

	exporter, err := config.NormalizeTraceExporter(cfg.TraceExporter)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "melotts"
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(name)))
	if err != nil {
		return nil, err
	}

	tp, err := initTracer(ctx, cfg, exporter, res, logger, traceOut)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)

	mp, handler := initMetrics(res, logger)
	otel.SetMeterProvider(mp)

	return &Providers{Tracer: tp, Meter: mp, Metrics: handler}, nil
}

func initTracer(
	ctx context.Context,
	cfg config.TelemetryConfig,
	exporter string,
	res *resource.Resource,
	logger *slog.Logger,
	traceOut io.Writer,
) (*sdktrace.TracerProvider, error) {
	switch exporter {
	case config.TraceExporterOTLP:
		endpoint := strings.TrimSpace(cfg.OTLPEndpoint)
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}

		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, err
		}

		logger.Info("telemetry initialized", slog.String("exporter", "otlp"), slog.String("endpoint", endpoint))

		return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp), sdktrace.WithResource(res)), nil
	case config.TraceExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(traceOut), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}

		logger.Info("telemetry initialized", slog.String("exporter", "stdout"))

		return sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp), sdktrace.WithResource(res)), nil
	default:
		logger.Debug("tracing disabled")
		return sdktrace.NewTracerProvider(sdktrace.WithResource(res)), nil
	}
}

// initMetrics uses a private registry so repeated setup in one process does
// not collide on the default Prometheus registerer.
func initMetrics(res *resource.Resource, logger *slog.Logger) (*sdkmetric.MeterProvider, http.Handler) {
	reg := promclient.NewRegistry()

	promExporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		logger.Warn("failed to initialize prometheus exporter", slog.String("error", err.Error()))
		return sdkmetric.NewMeterProvider(sdkmetric.WithResource(res)), nil
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
		sdkmetric.WithResource(res),
	)

	return mp, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
