package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Database.Enabled {
		t.Error("Database should be disabled by default")
	}
	if cfg.Auth.CookieName != "dashboard_session" {
		t.Errorf("Expected default cookie name, got %s", cfg.Auth.CookieName)
	}
	if cfg.Model.PredictTimeout != 5*time.Second {
		t.Errorf("Expected 5s predict timeout, got %v", cfg.Model.PredictTimeout)
	}
	if cfg.Auth.IdleTimeout != 30*time.Minute {
		t.Errorf("Expected 30m idle timeout, got %v", cfg.Auth.IdleTimeout)
	}
	if len(cfg.Export.Formats) != 0 {
		t.Errorf("Expected no export overrides, got %v", cfg.Export.Formats)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_ENABLED", "true")
	t.Setenv("MODEL_PREDICT_TIMEOUT", "250ms")
	t.Setenv("SESSION_IDLE_TIMEOUT", "5m")
	t.Setenv("EXPORT_FORMATS", "ledger=CSV, audit_log=xlsx,broken")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if !cfg.Database.Enabled {
		t.Error("Expected database enabled")
	}
	if cfg.Model.PredictTimeout != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %v", cfg.Model.PredictTimeout)
	}
	if cfg.Auth.IdleTimeout != 5*time.Minute {
		t.Errorf("Expected 5m idle timeout, got %v", cfg.Auth.IdleTimeout)
	}
	if cfg.Export.Formats["ledger"] != "csv" || cfg.Export.Formats["audit_log"] != "xlsx" {
		t.Errorf("Unexpected export formats: %v", cfg.Export.Formats)
	}
	if _, ok := cfg.Export.Formats["broken"]; ok {
		t.Error("Malformed pair should be skipped")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "db enabled without host", mutate: func(c *Config) {
			c.Database.Enabled = true
			c.Database.Host = ""
		}, wantErr: true},
		{name: "bcrypt cost too low", mutate: func(c *Config) { c.Auth.BcryptCost = 2 }, wantErr: true},
		{name: "unsupported export format", mutate: func(c *Config) {
			c.Export.Formats = map[string]string{"ledger": "pdf"}
		}, wantErr: true},
		{name: "zero preview rows", mutate: func(c *Config) { c.Import.PreviewRows = 0 }, wantErr: true},
		{name: "negative idle timeout", mutate: func(c *Config) { c.Auth.IdleTimeout = -time.Second }, wantErr: true},
		{name: "idle expiry off", mutate: func(c *Config) { c.Auth.IdleTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Database: DatabaseConfig{Host: "localhost", Name: "db"},
				Auth:     AuthConfig{CookieName: "s", BcryptCost: 10},
				Import:   ImportConfig{PreviewRows: 5},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
