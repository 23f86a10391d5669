// Package config provides configuration loading and validation for the
// relay server. Configuration is loaded from YAML files with environment
// variable overrides using a layered system:
// defaults -> base.yaml -> {profile}.yaml -> env vars.
package config

import "time"

// Config holds all configuration for the server.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Log        LogConfig        `koanf:"log"`
	RequestLog RequestLogConfig `koanf:"request_log"`
	CORS       CORSConfig       `koanf:"cors"`
	Client     ClientConfig     `koanf:"client"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// LogConfig holds structured logging settings for the process-wide sink.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// RequestLogConfig holds settings for the request-log middleware.
//
// Headers selects the header inclusion policy: "none", "all", "except"
// (all except Names), or "allow" (only Names). Redact lists header names
// whose values are masked in log records regardless of the inclusion
// policy; it extends the built-in sensitive-header set.
type RequestLogConfig struct {
	Level   string   `koanf:"level"`
	Headers string   `koanf:"headers"`
	Names   []string `koanf:"names"`
	Redact  []string `koanf:"redact"`
}

// CORSConfig holds cross-origin policy settings.
//
// Origin is the allowed origin: a literal origin, "*" for any, or "mirror"
// to reflect the request's Origin header. MaxAge is reported to clients in
// whole seconds.
type CORSConfig struct {
	Enabled          bool          `koanf:"enabled"`
	Origin           string        `koanf:"origin"`
	AllowedHeaders   []string      `koanf:"allowed_headers"`
	AllowedMethods   []string      `koanf:"allowed_methods"`
	AllowCredentials bool          `koanf:"allow_credentials"`
	ExposedHeaders   []string      `koanf:"exposed_headers"`
	MaxAge           time.Duration `koanf:"max_age"`
}

// ClientConfig holds downstream HTTP client settings.
type ClientConfig struct {
	BaseURL        string               `koanf:"base_url"`
	Timeout        time.Duration        `koanf:"timeout"`
	Retry          RetryConfig          `koanf:"retry"`
	RateLimit      RateLimitConfig      `koanf:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
}

// RetryConfig holds retry policy settings with exponential backoff.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"`
	InitialInterval time.Duration `koanf:"initial_interval"`
	MaxInterval     time.Duration `koanf:"max_interval"`
	Multiplier      float64       `koanf:"multiplier"`
}

// RateLimitConfig holds outbound request rate limiting settings.
// A zero RequestsPerSecond disables rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	BurstSize         int     `koanf:"burst_size"`
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"`
	Timeout       time.Duration `koanf:"timeout"`
	HalfOpenLimit int           `koanf:"half_open_limit"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Exporter    string `koanf:"exporter"`
	Endpoint    string `koanf:"endpoint"`
	ServiceName string `koanf:"service_name"`
}
