package config

import (
	"fmt"
	"time"

	"github.com/marmos91/lineserv/pkg/protocol"
)

// Default values applied when the config file or environment leaves a
// setting unset.
const (
	DefaultLogLevel  = "INFO"
	DefaultLogFormat = "text"
	DefaultLogOutput = "stdout"

	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsPort     = 9090
)

// GetDefaultConfig returns a fully populated default configuration.
func GetDefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
			Output: DefaultLogOutput,
		},
		Server: ServerConfig{
			BindAddress:     "",
			Port:            protocol.DefaultPort,
			MaxConnections:  0,
			MaxLineLength:   protocol.DefaultMaxLineLength,
			LoginPolicy:     LoginPolicyRetry,
			IdleTimeout:     0,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Auth: AuthConfig{
			UsersFile: "",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    DefaultMetricsPort,
		},
	}
}

// ApplyDefaults fills in zero values with defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = DefaultLogOutput
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = protocol.DefaultPort
	}
	if cfg.Server.MaxLineLength == 0 {
		cfg.Server.MaxLineLength = protocol.DefaultMaxLineLength
	}
	if cfg.Server.LoginPolicy == "" {
		cfg.Server.LoginPolicy = LoginPolicyRetry
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = DefaultMetricsPort
	}
}

// Validate checks the configuration for values that cannot work.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxConnections < 0 {
		return fmt.Errorf("server.max_connections must not be negative, got %d", cfg.Server.MaxConnections)
	}
	if cfg.Server.MaxLineLength < 1 {
		return fmt.Errorf("server.max_line_length must be positive, got %d", cfg.Server.MaxLineLength)
	}
	if p := cfg.Server.LoginPolicy; p != LoginPolicyRetry && p != LoginPolicyStrict {
		return fmt.Errorf("server.login_policy must be %q or %q, got %q", LoginPolicyRetry, LoginPolicyStrict, p)
	}
	if cfg.Server.IdleTimeout < 0 {
		return fmt.Errorf("server.idle_timeout must not be negative, got %v", cfg.Server.IdleTimeout)
	}
	if cfg.Metrics.Enabled && (cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port must be in 1-65535, got %d", cfg.Metrics.Port)
	}
	return nil
}
