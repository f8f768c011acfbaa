package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Client.PollInterval != 5*time.Second {
		t.Errorf("expected 5s poll interval, got %v", cfg.Client.PollInterval)
	}
	if cfg.Expiry.Enabled {
		t.Error("expiry sweeper should be off by default")
	}
	if err := cfg.RequireJWTSecret(); err == nil {
		t.Error("expected missing JWT secret to be rejected")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ALERTS_POLL_INTERVAL", "2s")
	t.Setenv("AUTH_JWT_SECRET", "a-long-enough-secret")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Client.PollInterval != 2*time.Second {
		t.Errorf("expected 2s poll interval, got %v", cfg.Client.PollInterval)
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		t.Errorf("expected secret to be accepted: %v", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"SERVER_PORT":          "70000",
		"LOG_LEVEL":            "verbose",
		"LOG_FORMAT":           "xml",
		"ALERTS_POLL_INTERVAL": "100ms",
		"WORKER_COUNT":         "0",
	}

	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Errorf("expected %s=%s to be rejected", key, val)
			}
		})
	}
}
