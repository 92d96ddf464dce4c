package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// UPS
	UPSClientID     string `envconfig:"UPS_CLIENT_ID"`
	UPSClientSecret string `envconfig:"UPS_CLIENT_SECRET"`
	UPSBaseURL      string `envconfig:"UPS_BASE_URL" default:"https://onlinetools.ups.com"`
	UPSUseMock      bool   `envconfig:"UPS_USE_MOCK" default:"false"`

	// Outbound HTTP
	HTTPTimeoutMs  int    `envconfig:"HTTP_TIMEOUT_MS" default:"30000"`
	TransactionSrc string `envconfig:"TRANSACTION_SRC" default:"cybership"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"cybership-rating"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.HTTPTimeoutMs < 0 {
		return nil, fmt.Errorf("invalid config HTTP_TIMEOUT_MS: must be a non-negative number")
	}
	return &cfg, nil
}

// HTTPTimeout returns the outbound request timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMs) * time.Millisecond
}

// UPSConfigured reports whether both UPS credential fields resolved.
// The UPS adapter is only registered when this holds (or mock mode is
// on); an unconfigured carrier is simply absent from the registry.
func (c *Config) UPSConfigured() bool {
	return c.UPSClientID != "" && c.UPSClientSecret != ""
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("ups.configured", c.UPSConfigured()),
		attribute.Bool("ups.mock", c.UPSUseMock),
	}
}
