/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"account-ledger-go/internal/models"
	"account-ledger-go/internal/store"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.LedgerStore.
var _ store.LedgerStore = (*Service)(nil)

// timestampLayout is fixed width so that lexical order of stored values
// equals chronological order. All stored times are UTC.
const timestampLayout = "2006-01-02 15:04:05.000000000"

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

// Ping reports whether the database is reachable
func (s *Service) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return dbError("ping database", err)
	}
	return nil
}

func (s *Service) initSchema(ctx context.Context) error {
	schema := `
	-- Accounts: balance is never stored here, it is derived from movements
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		account_number TEXT NOT NULL UNIQUE,
		account_type TEXT NOT NULL,
		initial_balance TEXT NOT NULL,
		status BOOLEAN NOT NULL DEFAULT 1,
		customer_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_customer_id ON accounts(customer_id);

	-- Movements: append-only ledger, sequence is the per-account position
	CREATE TABLE IF NOT EXISTS movements (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		sequence INTEGER NOT NULL,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		balance TEXT NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		UNIQUE(account_id, sequence)
	);

	CREATE INDEX IF NOT EXISTS idx_movements_account_created_at ON movements(account_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_movements_created_at ON movements(created_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// dbError marks a storage failure as infrastructure so callers can tell it
// apart from domain errors.
func dbError(op string, err error) error {
	return fmt.Errorf("unable to %s: %w: %w", op, store.ErrInfrastructure, err)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(timestampLayout, raw, time.UTC)
	if err != nil {
		// Rows written by hand may use RFC3339
		t, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", raw, err)
		}
	}
	return t.UTC(), nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zap.L().Warn("Failed to close rows", zap.Error(err))
	}
}
