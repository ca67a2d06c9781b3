package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.EscalationAge != 72*time.Hour {
		t.Errorf("EscalationAge = %s, want 72h", cfg.EscalationAge)
	}
	if cfg.QueryLimit != 50 {
		t.Errorf("QueryLimit = %d, want 50", cfg.QueryLimit)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"zero preview threshold", func(c *Config) { c.PreviewThreshold = 0 }},
		{"zero retry attempts", func(c *Config) { c.RetryMaxAttempts = 0 }},
		{"zero call timeout", func(c *Config) { c.CallTimeout = 0 }},
		{"negative escalation age", func(c *Config) { c.EscalationAge = -time.Hour }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mut(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadWithoutConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != Defaults() {
		t.Errorf("Load() without file = %+v, want defaults %+v", cfg, Defaults())
	}
}
