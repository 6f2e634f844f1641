// Package observability wires logging-adjacent telemetry: tracing and
// metric instruments.
package observability

import (
	"github.com/pabloguineab/debugcv-sub002/internal/config"
	"github.com/pabloguineab/debugcv-sub002/internal/observability/metrics"
	"github.com/pabloguineab/debugcv-sub002/internal/observability/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(func(cfg config.Config) tracing.Config {
		return tracing.Config{
			Enabled:          cfg.Tracing.Enabled,
			ServiceName:      cfg.ServiceName,
			ServiceVersion:   cfg.ServiceVersion,
			Environment:      cfg.Environment,
			ExporterEndpoint: cfg.Tracing.ExporterEndpoint,
			ExporterProtocol: cfg.Tracing.ExporterProtocol,
			SamplingRatio:    cfg.Tracing.SamplingRatio,
		}
	}),
	fx.Provide(func(cfg config.Config) metrics.Config {
		return metrics.Config{
			ServiceName: cfg.ServiceName,
			Environment: cfg.Environment,
		}
	}),
	fx.Provide(func() metric.MeterProvider {
		return otel.GetMeterProvider()
	}),
	fx.Provide(metrics.NewHTTPMetrics),
	fx.Provide(func(cfg metrics.Config) *metrics.DecisionMetrics {
		return metrics.Decisions(cfg)
	}),
	fx.Invoke(tracing.NewProvider),
)
