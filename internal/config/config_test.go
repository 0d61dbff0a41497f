package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATABASE_PATH", "HTTP_ADDR", "CUSTOMER_SERVICE_TIMEOUT", "LEDGER_MAX_CONFLICT_RETRIES", "STATEMENT_TIMEZONE", "METRICS_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Path != "ledger.db" {
		t.Errorf("Expected default database path, got %q", cfg.Database.Path)
	}
	if cfg.Customer.Timeout != 3*time.Second {
		t.Errorf("Expected 3s customer service timeout, got %v", cfg.Customer.Timeout)
	}
	if cfg.Ledger.MaxConflictRetries != 5 {
		t.Errorf("Expected 5 conflict retries, got %d", cfg.Ledger.MaxConflictRetries)
	}
	if cfg.Ledger.StatementTimezone != "UTC" || !cfg.Server.MetricsEnabled {
		t.Errorf("Unexpected defaults: %+v %+v", cfg.Ledger, cfg.Server)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/tmp/other.db")
	t.Setenv("CUSTOMER_SERVICE_TIMEOUT", "750ms")
	t.Setenv("LEDGER_MAX_CONFLICT_RETRIES", "2")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Path != "/tmp/other.db" || cfg.Customer.Timeout != 750*time.Millisecond {
		t.Errorf("Overrides not applied: %+v %+v", cfg.Database, cfg.Customer)
	}
	if cfg.Ledger.MaxConflictRetries != 2 || cfg.Server.MetricsEnabled {
		t.Errorf("Overrides not applied: %+v %+v", cfg.Ledger, cfg.Server)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("Expected unparsable int to fall back to default, got %d", cfg.Database.MaxOpenConns)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("duration", func(t *testing.T) {
		t.Setenv("HTTP_REQUEST_TIMEOUT", "soon")
		if _, err := Load(); err == nil {
			t.Error("Expected error for invalid duration")
		}
	})
	t.Run("timezone", func(t *testing.T) {
		t.Setenv("STATEMENT_TIMEZONE", "Mars/Olympus_Mons")
		if _, err := Load(); err == nil {
			t.Error("Expected error for unknown time zone")
		}
	})
}
