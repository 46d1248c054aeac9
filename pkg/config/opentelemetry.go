package config

import (
	"errors"
	"fmt"
)

// Trace exporters accepted by OpenTelemetryConfig.Exporter.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// OpenTelemetryConfig configures OpenTelemetry tracing of measurement runs.
// @docname opentelemetry
type OpenTelemetryConfig struct {
	// Enabled turns tracing on. Default: false.
	Enabled bool `json:"enabled,omitzero"`

	// Exporter is "otlp" or "stdout". Default: "otlp".
	// The stdout exporter writes spans to stderr as pretty-printed JSON.
	Exporter string `json:"exporter,omitzero"`

	// ServiceName is the service name to use in traces. Default: "fntimer".
	ServiceName string `json:"service_name,omitzero"`

	// OTLPEndpoint is the OTLP collector endpoint.
	// If not set, the OTEL_EXPORTER_OTLP_ENDPOINT environment variable is used.
	OTLPEndpoint string `json:"otlp_endpoint,omitzero"`

	// OTLPProtocol is the OTLP protocol to use: "grpc" or "http". Default: "grpc".
	OTLPProtocol string `json:"otlp_protocol,omitzero"`

	// SamplingRate is the sampling rate from 0.0 to 1.0. Default: 1.0 (sample all).
	SamplingRate *float64 `json:"sampling_rate,omitzero"`
}

// GetExporter returns the exporter, defaulting to "otlp".
func (c *OpenTelemetryConfig) GetExporter() string {
	if c.Exporter == "" {
		return ExporterOTLP
	}
	return c.Exporter
}

// GetServiceName returns the service name, defaulting to "fntimer".
func (c *OpenTelemetryConfig) GetServiceName() string {
	if c.ServiceName == "" {
		return "fntimer"
	}
	return c.ServiceName
}

// GetOTLPProtocol returns the OTLP protocol, defaulting to "grpc".
func (c *OpenTelemetryConfig) GetOTLPProtocol() string {
	if c.OTLPProtocol == "" {
		return "grpc"
	}
	return c.OTLPProtocol
}

// GetSamplingRate returns the sampling rate, defaulting to 1.0.
func (c *OpenTelemetryConfig) GetSamplingRate() float64 {
	if c.SamplingRate == nil {
		return 1.0
	}
	return *c.SamplingRate
}

// Validate validates the OpenTelemetry configuration.
func (c *OpenTelemetryConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	var errs []error

	exporter := c.GetExporter()
	if exporter != ExporterOTLP && exporter != ExporterStdout {
		errs = append(errs, fmt.Errorf("exporter must be %q or %q, got %q", ExporterOTLP, ExporterStdout, exporter))
	}

	protocol := c.GetOTLPProtocol()
	if protocol != "grpc" && protocol != "http" {
		errs = append(errs, fmt.Errorf("otlp_protocol must be \"grpc\" or \"http\", got %q", protocol))
	}

	rate := c.GetSamplingRate()
	if rate < 0.0 || rate > 1.0 {
		errs = append(errs, fmt.Errorf("sampling_rate must be between 0.0 and 1.0, got %f", rate))
	}

	if exporter == ExporterStdout && c.OTLPEndpoint != "" {
		errs = append(errs, errors.New("otlp_endpoint is set but exporter is \"stdout\""))
	}

	return errors.Join(errs...)
}

// ParseTraceExporter creates an enabled OpenTelemetryConfig from a CLI
// exporter argument. An empty argument returns nil.
func ParseTraceExporter(exporter string) *OpenTelemetryConfig {
	if exporter == "" {
		return nil
	}
	return &OpenTelemetryConfig{
		Enabled:  true,
		Exporter: exporter,
	}
}
