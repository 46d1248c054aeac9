package config

import (
	"errors"
	"fmt"
	"strings"
)

// PrometheusConfig configures Prometheus metrics export.
// If this config is present in the config file, Prometheus metrics are enabled.
// @docname prometheus
type PrometheusConfig struct {
	// Listen is the address to serve metrics on after the run, until
	// interrupted. Format: "host:port" or ":port". Empty disables serving.
	Listen string `json:"listen,omitzero"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `json:"path,omitzero"`

	// Textfile is a file that receives the metrics in text exposition format
	// when the run finishes, for node_exporter's textfile collector.
	Textfile string `json:"textfile,omitzero"`

	// ExtraLabels are added to all metrics.
	// Example: {"host": "ci-runner-3", "git_sha": "d2169b0"}
	ExtraLabels map[string]string `json:"extra_labels,omitzero"`
}

// GetPath returns the metrics path, defaulting to "/metrics".
func (c *PrometheusConfig) GetPath() string {
	if c.Path == "" {
		return "/metrics"
	}
	return c.Path
}

// Validate validates the Prometheus configuration.
func (c *PrometheusConfig) Validate() error {
	var errs []error

	if c.Listen != "" && !strings.Contains(c.Listen, ":") {
		errs = append(errs, fmt.Errorf("listen address %q must contain a port (e.g., ':9090' or '0.0.0.0:9090')", c.Listen))
	}

	path := c.GetPath()
	if !strings.HasPrefix(path, "/") {
		errs = append(errs, fmt.Errorf("path %q must start with '/'", path))
	}

	if c.Listen == "" && c.Textfile == "" {
		errs = append(errs, errors.New("one of listen or textfile is required"))
	}

	for name := range c.ExtraLabels {
		if name == "" || strings.HasPrefix(name, "__") {
			errs = append(errs, fmt.Errorf("extra label name %q is invalid", name))
		}
	}

	return errors.Join(errs...)
}

// ParsePrometheusListen parses a CLI listen argument in "host:port/path" format
// and returns a PrometheusConfig. If path is not specified, defaults to "/metrics".
func ParsePrometheusListen(listen string) *PrometheusConfig {
	if listen == "" {
		return nil
	}

	// Format: ":9090/metrics" or "0.0.0.0:9090/metrics" or ":9090"
	parts := strings.SplitN(listen, "/", 2)
	addr := parts[0]
	path := "/metrics"
	if len(parts) > 1 {
		path = "/" + parts[1]
	}

	return &PrometheusConfig{
		Listen: addr,
		Path:   path,
	}
}
