package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "8089" {
		t.Errorf("Expected Port to be 8089, got %s", cfg.Port)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Fetch.Workers != 3 {
		t.Errorf("Expected Fetch.Workers to be 3, got %d", cfg.Fetch.Workers)
	}

	if cfg.Fetch.MinRequestInterval != 750*time.Millisecond {
		t.Errorf("Expected Fetch.MinRequestInterval to be 750ms, got %s", cfg.Fetch.MinRequestInterval)
	}

	if cfg.Fetch.LongPauseEvery != 10 {
		t.Errorf("Expected Fetch.LongPauseEvery to be 10, got %d", cfg.Fetch.LongPauseEvery)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("ENV", "production")
	os.Setenv("FRED_API_KEY", "abc123")
	os.Setenv("FETCH_WORKERS", "5")
	os.Setenv("FETCH_MIN_INTERVAL", "2s")
	os.Setenv("LOG_LEVEL", "warn")

	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ENV")
		os.Unsetenv("FRED_API_KEY")
		os.Unsetenv("FETCH_WORKERS")
		os.Unsetenv("FETCH_MIN_INTERVAL")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}

	if cfg.FRED.APIKey != "abc123" {
		t.Errorf("Expected FRED.APIKey to be abc123, got %s", cfg.FRED.APIKey)
	}

	if cfg.Fetch.Workers != 5 {
		t.Errorf("Expected Fetch.Workers to be 5, got %d", cfg.Fetch.Workers)
	}

	if cfg.Fetch.MinRequestInterval != 2*time.Second {
		t.Errorf("Expected Fetch.MinRequestInterval to be 2s, got %s", cfg.Fetch.MinRequestInterval)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("Expected LogLevel to be warn, got %s", cfg.LogLevel)
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	os.Setenv("ENV", "sandbox")
	defer os.Unsetenv("ENV")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for invalid ENV, got nil")
	}
}

func TestValidateDatabaseEnabledWithoutURL(t *testing.T) {
	os.Setenv("DATABASE_ENABLED", "true")
	os.Unsetenv("DATABASE_URL")
	defer os.Unsetenv("DATABASE_ENABLED")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when DATABASE_ENABLED=true without DATABASE_URL, got nil")
	}
}
