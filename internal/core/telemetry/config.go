// Package telemetry provides OpenTelemetry tracing for FieldKeeper.
// Disabled by default; enabled through the telemetry config block.
package telemetry

import (
	"errors"
)

// Protocol constants for OTLP exporters.
const (
	ProtocolHTTP = "otlphttp"
	ProtocolGRPC = "otlpgrpc"
)

// Config holds tracer initialization options.
type Config struct {
	Enabled     bool
	Endpoint    string  // e.g. "http://localhost:4318" or "localhost:4317"
	Protocol    string  // "otlphttp" or "otlpgrpc"
	Insecure    bool    // allow insecure connections (no TLS)
	ServiceName string  // default: "fieldkeeper"
	SampleRatio float64 // 0..1, default: 1.0
}

// DefaultConfig returns a Config with tracing disabled.
func DefaultConfig() Config {
	return Config{
		Enabled:     false,
		Protocol:    ProtocolHTTP,
		ServiceName: "fieldkeeper",
		SampleRatio: 1.0,
	}
}

// Validate checks the configuration when tracing is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch c.Protocol {
	case ProtocolHTTP, ProtocolGRPC:
	default:
		return errors.New("telemetry: protocol must be 'otlphttp' or 'otlpgrpc'")
	}

	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return errors.New("telemetry: sample_ratio must be between 0 and 1")
	}

	return nil
}
