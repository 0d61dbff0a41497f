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

package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Customer CustomerConfig
	Ledger   LedgerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MetricsEnabled  bool
}

// CustomerConfig holds settings for the customer service lookup.
// When DirectoryFile is set the static directory is used instead of BaseURL.
type CustomerConfig struct {
	BaseURL       string
	Timeout       time.Duration
	DirectoryFile string
}

// LedgerConfig holds ledger engine settings
type LedgerConfig struct {
	MaxConflictRetries int
	StatementTimezone  string
}
