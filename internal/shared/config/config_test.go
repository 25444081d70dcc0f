package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EMPIRE_NAMES", "")
	t.Setenv("EMPIRE_INBOX_CAPACITY", "")

	cfg, err := load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Empire.InboxCapacity != 128 {
		t.Errorf("InboxCapacity = %d, want 128", cfg.Empire.InboxCapacity)
	}
	if cfg.Empire.SubmitTimeout != 0 {
		t.Errorf("SubmitTimeout = %v, want 0", cfg.Empire.SubmitTimeout)
	}
	if got := strings.Join(cfg.Empire.Names, "|"); got != "Terran Federation|Centauri Hegemony" {
		t.Errorf("Names = %q", got)
	}
	if cfg.Simulation.TickInterval != time.Second {
		t.Errorf("TickInterval = %v, want 1s", cfg.Simulation.TickInterval)
	}
}

func TestLoadEmpireOverrides(t *testing.T) {
	t.Setenv("EMPIRE_NAMES", " Alpha , ,Beta")
	t.Setenv("EMPIRE_INBOX_CAPACITY", "4")
	t.Setenv("EMPIRE_SUBMIT_TIMEOUT_MS", "250")
	t.Setenv("EMPIRE_SEED", "42")

	cfg, err := load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := strings.Join(cfg.Empire.Names, "|"); got != "Alpha|Beta" {
		t.Errorf("Names = %q, want Alpha|Beta", got)
	}
	if cfg.Empire.InboxCapacity != 4 {
		t.Errorf("InboxCapacity = %d, want 4", cfg.Empire.InboxCapacity)
	}
	if cfg.Empire.SubmitTimeout != 250*time.Millisecond {
		t.Errorf("SubmitTimeout = %v", cfg.Empire.SubmitTimeout)
	}
	if cfg.Empire.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Empire.Seed)
	}
}

func TestLoadRejectsMalformedCapacity(t *testing.T) {
	t.Setenv("EMPIRE_INBOX_CAPACITY", "lots")
	if _, err := load(); err == nil {
		t.Fatal("expected error for non-numeric capacity")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:     ServerConfig{Port: "8080"},
			Auth:       AuthConfig{JWTSecret: strings.Repeat("s", 32)},
			Empire:     EmpireConfig{Names: []string{"A"}, InboxCapacity: 128},
			Simulation: SimulationConfig{TickInterval: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "short secret", mutate: func(c *Config) { c.Auth.JWTSecret = "short" }, wantErr: "32 characters"},
		{name: "zero capacity", mutate: func(c *Config) { c.Empire.InboxCapacity = 0 }, wantErr: "EMPIRE_INBOX_CAPACITY"},
		{name: "negative timeout", mutate: func(c *Config) { c.Empire.SubmitTimeout = -time.Second }, wantErr: "EMPIRE_SUBMIT_TIMEOUT_MS"},
		{name: "no empires", mutate: func(c *Config) { c.Empire.Names = nil }, wantErr: "EMPIRE_NAMES"},
		{name: "zero tick", mutate: func(c *Config) { c.Simulation.TickInterval = 0 }, wantErr: "SIM_TICK_MS"},
		{name: "db without name", mutate: func(c *Config) { c.Database.Enabled = true }, wantErr: "DB_NAME"},
		{name: "db without retention", mutate: func(c *Config) { c.Database.Enabled = true; c.Database.Name = "empires" }, wantErr: "SIM_SNAPSHOT_KEEP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
