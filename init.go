package main

import (
	"context"

	"github.com/cybership/rating/internal/config"
	"github.com/cybership/rating/internal/telemetry"
	"github.com/cybership/rating/pkg/carrier"
	"github.com/cybership/rating/pkg/carrier/ups"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initMetrics() *telemetry.Metrics {
	return telemetry.NewMetrics()
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
}

func initRatingService(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) *carrier.Service {
	registry := carrier.NewRegistry()

	// Carriers register only with resolved credentials; mock mode is
	// the exception so the service can run end-to-end without any.
	if cfg.UPSConfigured() || cfg.UPSUseMock {
		upsClient := ups.New(ups.Config{
			ClientID:       cfg.UPSClientID,
			ClientSecret:   cfg.UPSClientSecret,
			BaseURL:        cfg.UPSBaseURL,
			TransactionSrc: cfg.TransactionSrc,
			Timeout:        cfg.HTTPTimeout(),
			UseMock:        cfg.UPSUseMock,
		}, logger, tracer)
		registry.Register(upsClient)
	}

	return carrier.NewService(registry)
}
