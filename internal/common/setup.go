package common

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"account-ledger-go/internal/customer"
	"account-ledger-go/internal/database"
	"account-ledger-go/internal/ledger"
	"account-ledger-go/internal/models"
	"account-ledger-go/internal/registry"
	"account-ledger-go/internal/statement"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

// Services bundles the components every binary wires together
type Services struct {
	DbService  *database.Service
	Oracle     customer.Oracle
	Ledger     *ledger.Service
	Registry   *registry.Service
	Statements *statement.Generator
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	oracle, err := InitializeOracle(cfg.Customer)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	location, err := time.LoadLocation(cfg.Ledger.StatementTimezone)
	if err != nil {
		dbService.Close()
		return nil, fmt.Errorf("invalid statement time zone %q: %w", cfg.Ledger.StatementTimezone, err)
	}

	ledgerService := ledger.NewService(dbService, cfg.Ledger)

	return &Services{
		DbService:  dbService,
		Oracle:     oracle,
		Ledger:     ledgerService,
		Registry:   registry.NewService(dbService, oracle, ledgerService, cfg.Customer.Timeout),
		Statements: statement.NewGenerator(dbService, oracle, location),
	}, nil
}

// InitializeOracle picks the static customer directory when a file is
// configured and the customer service client otherwise
func InitializeOracle(cfg models.CustomerConfig) (customer.Oracle, error) {
	if cfg.DirectoryFile != "" {
		zap.L().Info("Using static customer directory", zap.String("file", cfg.DirectoryFile))
		return customer.LoadDirectory(cfg.DirectoryFile)
	}

	zap.L().Info("Using customer service",
		zap.String("base_url", cfg.BaseURL),
		zap.Duration("timeout", cfg.Timeout))
	return customer.NewClient(cfg)
}

// InitializeDatabaseOnly initializes just the database service without the
// customer service, for read-only tools
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	return database.NewService(ctx, cfg.Database)
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
