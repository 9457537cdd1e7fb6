// Package config provides configuration management for FieldKeeper services.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/solatis/fieldkeeper/internal/core/telemetry"
)

// ServiceConfig holds configuration for the gRPC and HTTP visibility APIs.
type ServiceConfig struct {
	GRPCHost           string
	GRPCPort           int
	HTTPHost           string
	HTTPPort           int
	MaxConnections     int
	RequestTimeout     time.Duration
	MaxFieldsPerEntity int
	MaxBatchSize       int
	Telemetry          telemetry.Config
}

// DefaultServiceConfig returns configuration with default values.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		GRPCHost:           "0.0.0.0",
		GRPCPort:           50061,
		HTTPHost:           "0.0.0.0",
		HTTPPort:           8081,
		MaxConnections:     1000,
		RequestTimeout:     30 * time.Second,
		MaxFieldsPerEntity: 500,
		MaxBatchSize:       1000,
		Telemetry:          telemetry.DefaultConfig(),
	}
}

// GRPCAddr returns the host:port the gRPC server listens on.
func (c *ServiceConfig) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.GRPCHost, c.GRPCPort)
}

// HTTPAddr returns the host:port the HTTP server listens on.
func (c *ServiceConfig) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}

// HMACSecrets extracts HMAC secrets from environment variables.
// Supports FK_HMAC_SECRET (single) and FK_HMAC_SECRET_N (rotation).
// Returns map of secret_id -> decoded secret bytes.
// Secret IDs are UUIDv7 (32 hex chars without hyphens) matching API key format.
func HMACSecrets() (map[string][]byte, error) {
	secrets := make(map[string][]byte)

	add := func(key, val string) error {
		secretID, decoded, err := ParseHMACSecretWithID(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if _, exists := secrets[secretID]; exists {
			return fmt.Errorf("duplicate secret_id '%s' found in environment variables (check FK_HMAC_SECRET and FK_HMAC_SECRET_* for conflicts)", secretID)
		}
		secrets[secretID] = decoded
		return nil
	}

	// Format: <secret_id>:<base64_secret>
	if val := os.Getenv("FK_HMAC_SECRET"); val != "" {
		if err := add("FK_HMAC_SECRET", val); err != nil {
			return nil, err
		}
	}

	// Numbered secrets keep old and new keys valid during rotation
	for i := 1; ; i++ {
		key := fmt.Sprintf("FK_HMAC_SECRET_%d", i)
		val := os.Getenv(key)
		if val == "" {
			break
		}
		if err := add(key, val); err != nil {
			return nil, err
		}
	}

	return secrets, nil
}

// ParseHMACSecret decodes base64-encoded HMAC secret from environment variable.
func ParseHMACSecret(envValue string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(envValue))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(decoded) < 32 {
		return nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(decoded))
	}
	return decoded, nil
}

// ParseHMACSecretWithID parses secret_id:base64_secret format.
// Secret ID must be 32 hex chars (UUIDv7 without hyphens).
func ParseHMACSecretWithID(envValue string) (secretID string, secret []byte, err error) {
	parts := strings.SplitN(strings.TrimSpace(envValue), ":", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}

	secretID = parts[0]
	if len(secretID) != 32 {
		return "", nil, fmt.Errorf("secret_id must be 32 hex chars (UUIDv7 without hyphens)")
	}
	for _, c := range secretID {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", nil, fmt.Errorf("secret_id must be hex chars only")
		}
	}

	secret, err = ParseHMACSecret(parts[1])
	if err != nil {
		return "", nil, err
	}
	return secretID, secret, nil
}
