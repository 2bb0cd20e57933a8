package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want 5432", cfg.Database.Port)
	}
	if cfg.Interpreter.Model == "" {
		t.Error("Interpreter.Model should have a default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_CONN_MAX_LIFETIME", "30s")
	t.Setenv("OLLAMA_MODEL", "llama3:8b")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.ConnMaxLifetime != 30*time.Second {
		t.Errorf("ConnMaxLifetime = %v, want 30s", cfg.Database.ConnMaxLifetime)
	}
	if cfg.Interpreter.Model != "llama3:8b" {
		t.Errorf("Interpreter.Model = %q, want llama3:8b", cfg.Interpreter.Model)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"missing db host", func(c *Config) { c.Database.Host = "" }},
		{"missing db user", func(c *Config) { c.Database.User = "" }},
		{"idle exceeds open", func(c *Config) { c.Database.MaxOpenConns = 1; c.Database.MaxIdleConns = 5 }},
		{"missing model", func(c *Config) { c.Interpreter.Model = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig()
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
