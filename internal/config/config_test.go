package config

import (
	"testing"
	"time"
)

var allKeys = []string{
	"APP_BIND_ADDR",
	"APP_METRICS_NAMESPACE",
	"APP_SHUTDOWN_TIMEOUT",
	"APP_ALLOW_ANY_ORIGIN",
	"SESSION_TTL",
	"SESSION_SWEEP_INTERVAL",
	"DEBATE_MAX_ROUNDS",
	"GENERATION_PROVIDER",
	"GENERATION_HTTP_URL",
	"GENERATION_TIMEOUT",
	"OPENAI_API_KEY",
	"OPENAI_BASE_URL",
	"OPENAI_MODEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want :8080", cfg.BindAddr)
	}
	if cfg.MetricsNamespace != "gavel" {
		t.Fatalf("MetricsNamespace = %q, want gavel", cfg.MetricsNamespace)
	}
	if cfg.SessionTTL != 3*time.Hour {
		t.Fatalf("SessionTTL = %v, want 3h", cfg.SessionTTL)
	}
	if cfg.SweepInterval != time.Hour {
		t.Fatalf("SweepInterval = %v, want 1h", cfg.SweepInterval)
	}
	if cfg.MaxRounds != 3 {
		t.Fatalf("MaxRounds = %d, want 3", cfg.MaxRounds)
	}
	if cfg.GenerationProvider != "auto" {
		t.Fatalf("GenerationProvider = %q, want auto", cfg.GenerationProvider)
	}
	if cfg.GenerationTimeout != 60*time.Second {
		t.Fatalf("GenerationTimeout = %v, want 60s", cfg.GenerationTimeout)
	}
	if cfg.AllowAnyOrigin {
		t.Fatalf("AllowAnyOrigin defaults to true")
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_BIND_ADDR", "127.0.0.1:9090")
	t.Setenv("SESSION_TTL", "45m")
	t.Setenv("SESSION_SWEEP_INTERVAL", "5m")
	t.Setenv("DEBATE_MAX_ROUNDS", "5")
	t.Setenv("GENERATION_PROVIDER", "http")
	t.Setenv("GENERATION_HTTP_URL", "http://collaborator:9000/generate")
	t.Setenv("GENERATION_TIMEOUT", "30s")
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != "127.0.0.1:9090" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.SessionTTL != 45*time.Minute || cfg.SweepInterval != 5*time.Minute {
		t.Fatalf("TTL = %v, sweep = %v", cfg.SessionTTL, cfg.SweepInterval)
	}
	if cfg.MaxRounds != 5 {
		t.Fatalf("MaxRounds = %d, want 5", cfg.MaxRounds)
	}
	if cfg.GenerationProvider != "http" || cfg.GenerationHTTPURL != "http://collaborator:9000/generate" {
		t.Fatalf("provider = %q, url = %q", cfg.GenerationProvider, cfg.GenerationHTTPURL)
	}
	if cfg.GenerationTimeout != 30*time.Second {
		t.Fatalf("GenerationTimeout = %v", cfg.GenerationTimeout)
	}
	if !cfg.AllowAnyOrigin {
		t.Fatalf("AllowAnyOrigin not applied")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		key, value string
	}{
		{"SESSION_TTL", "nonsense"},
		{"SESSION_TTL", "10s"},
		{"SESSION_SWEEP_INTERVAL", "100ms"},
		{"DEBATE_MAX_ROUNDS", "0"},
		{"DEBATE_MAX_ROUNDS", "three"},
		{"GENERATION_TIMEOUT", "100ms"},
		{"APP_ALLOW_ANY_ORIGIN", "maybe"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() accepted %s=%s", tc.key, tc.value)
			}
		})
	}
}
