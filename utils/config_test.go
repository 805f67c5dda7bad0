package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Server.Host != "127.0.0.1" || config.Server.Port != 8080 {
		t.Errorf("unexpected server defaults: %s:%d", config.Server.Host, config.Server.Port)
	}
	if config.Session.CookieName != "breachsim_session" {
		t.Errorf("unexpected cookie name: %s", config.Session.CookieName)
	}
	if config.Session.Store != "memory" {
		t.Errorf("unexpected default store: %s", config.Session.Store)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadConfigMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  port: 9090\nsession:\n  store: redis\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", config.Server.Port)
	}
	if config.Server.Host != "127.0.0.1" {
		t.Errorf("host should default, got %s", config.Server.Host)
	}
	if config.Session.Store != "redis" {
		t.Errorf("expected redis store, got %s", config.Session.Store)
	}
	if config.Session.TTLMinutes != 24*60 {
		t.Errorf("ttl should default, got %d", config.Session.TTLMinutes)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestValidate(t *testing.T) {
	bad := DefaultConfig()
	bad.Server.Port = 70000
	if err := bad.Validate(); err == nil {
		t.Error("out-of-range port must fail validation")
	}

	bad = DefaultConfig()
	bad.Session.Store = "postgres"
	if err := bad.Validate(); err == nil {
		t.Error("unknown store must fail validation")
	}

	bad = DefaultConfig()
	bad.Session.TTLMinutes = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero ttl must fail validation")
	}
}
