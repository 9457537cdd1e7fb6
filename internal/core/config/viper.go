package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/solatis/fieldkeeper/internal/core/telemetry"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	v := viper.New()

	// Defaults matching DefaultServiceConfig
	d := DefaultServiceConfig()
	v.SetDefault("server.grpc_host", d.GRPCHost)
	v.SetDefault("server.grpc_port", d.GRPCPort)
	v.SetDefault("server.http_host", d.HTTPHost)
	v.SetDefault("server.http_port", d.HTTPPort)
	v.SetDefault("server.max_connections", d.MaxConnections)
	v.SetDefault("server.request_timeout", d.RequestTimeout.String())
	v.SetDefault("limits.max_fields", d.MaxFieldsPerEntity)
	v.SetDefault("limits.max_batch_size", d.MaxBatchSize)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.protocol", d.Telemetry.Protocol)
	v.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
	v.SetDefault("telemetry.insecure", d.Telemetry.Insecure)
	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
	v.SetDefault("telemetry.sample_ratio", d.Telemetry.SampleRatio)

	// Bind environment variables with FK_ prefix
	v.SetEnvPrefix("FK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets are environment-only
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &ServiceConfig{
		GRPCHost:           v.GetString("server.grpc_host"),
		GRPCPort:           v.GetInt("server.grpc_port"),
		HTTPHost:           v.GetString("server.http_host"),
		HTTPPort:           v.GetInt("server.http_port"),
		MaxConnections:     v.GetInt("server.max_connections"),
		RequestTimeout:     v.GetDuration("server.request_timeout"),
		MaxFieldsPerEntity: v.GetInt("limits.max_fields"),
		MaxBatchSize:       v.GetInt("limits.max_batch_size"),
		Telemetry: telemetry.Config{
			Enabled:     v.GetBool("telemetry.enabled"),
			Protocol:    v.GetString("telemetry.protocol"),
			Endpoint:    v.GetString("telemetry.endpoint"),
			Insecure:    v.GetBool("telemetry.insecure"),
			ServiceName: v.GetString("telemetry.service_name"),
			SampleRatio: v.GetFloat64("telemetry.sample_ratio"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port ranges and positive limits.
func validateConfig(cfg *ServiceConfig) error {
	if cfg.GRPCPort <= 0 || cfg.GRPCPort > 65535 {
		return fmt.Errorf("grpc_port must be between 1 and 65535, got %d", cfg.GRPCPort)
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return fmt.Errorf("http_port must be between 1 and 65535, got %d", cfg.HTTPPort)
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", cfg.MaxConnections)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxFieldsPerEntity <= 0 {
		return fmt.Errorf("max_fields must be positive, got %d", cfg.MaxFieldsPerEntity)
	}
	if cfg.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive, got %d", cfg.MaxBatchSize)
	}
	return cfg.Telemetry.Validate()
}

// validateNoSecretsInConfig enforces environment-only secrets. InConfig
// ignores FK_HMAC_SECRET, which AutomaticEnv would otherwise report as set.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("server.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use FK_HMAC_SECRET environment variable)")
	}
	return nil
}
