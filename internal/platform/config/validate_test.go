package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/jsamuelsen11/relay/internal/platform/config"
)

// validConfig returns a configuration that passes validation; tests break
// one field at a time.
func validConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: config.LogConfig{Level: "info", Format: "json"},
		RequestLog: config.RequestLogConfig{
			Level:   "info",
			Headers: "none",
		},
		CORS: config.CORSConfig{
			Enabled: true,
			Origin:  "*",
			MaxAge:  10 * time.Minute,
		},
		Client: config.ClientConfig{
			BaseURL: "http://localhost:8081",
			Timeout: 30 * time.Second,
			Retry: config.RetryConfig{
				MaxAttempts: 3,
				Multiplier:  2,
			},
			CircuitBreaker: config.CircuitBreakerConfig{
				MaxFailures: 5,
			},
		},
		Telemetry: config.TelemetryConfig{Enabled: false},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()

	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "port out of range",
			mutate:  func(c *config.Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "bad log level",
			mutate:  func(c *config.Config) { c.Log.Level = "verbose" },
			wantErr: "log.level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *config.Config) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
		{
			name:    "bad header policy",
			mutate:  func(c *config.Config) { c.RequestLog.Headers = "some" },
			wantErr: "request_log.headers",
		},
		{
			name:    "names with none policy",
			mutate:  func(c *config.Config) { c.RequestLog.Names = []string{"accept"} },
			wantErr: "request_log.names",
		},
		{
			name: "cors enabled without origin",
			mutate: func(c *config.Config) {
				c.CORS.Origin = ""
			},
			wantErr: "cors.origin",
		},
		{
			name:    "negative cors max age",
			mutate:  func(c *config.Config) { c.CORS.MaxAge = -time.Second },
			wantErr: "cors.max_age",
		},
		{
			name:    "empty client base url",
			mutate:  func(c *config.Config) { c.Client.BaseURL = "" },
			wantErr: "client.base_url",
		},
		{
			name:    "zero retry multiplier",
			mutate:  func(c *config.Config) { c.Client.Retry.Multiplier = 0 },
			wantErr: "client.retry.multiplier",
		},
		{
			name: "rate limit without burst",
			mutate: func(c *config.Config) {
				c.Client.RateLimit.RequestsPerSecond = 10
				c.Client.RateLimit.BurstSize = 0
			},
			wantErr: "client.rate_limit.burst_size",
		},
		{
			name: "otlp exporter without endpoint",
			mutate: func(c *config.Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.Exporter = "otlp"
				c.Telemetry.Endpoint = ""
			},
			wantErr: "telemetry.endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

// Disabled sections skip their validation entirely.
func TestValidate_DisabledSectionsSkipped(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.CORS.Enabled = false
	cfg.CORS.Origin = ""
	cfg.Telemetry.Enabled = false
	cfg.Telemetry.Exporter = "bogus"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want disabled sections ignored", err)
	}
}
