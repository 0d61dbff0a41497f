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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"account-ledger-go/internal/common"
	"account-ledger-go/internal/config"
	"account-ledger-go/internal/ledger"
	"account-ledger-go/internal/models"
	"account-ledger-go/internal/store"

	"go.uber.org/zap"
)

type reconcileStats struct {
	accounts   int
	movements  int
	mismatches int
}

func printResult(result *ledger.ReconcileResult, isLast bool) {
	symbol := common.BoxPrefix(isLast)
	if result.Verified() {
		fmt.Printf("%s ✓ %-20s %6d movements, balance %s\n", symbol, result.AccountNumber, result.Movements, result.Balance.StringFixed(2))
		return
	}

	m := result.Mismatch
	fmt.Printf("%s ✗ %-20s mismatch at sequence %d (movement %s)\n", symbol, result.AccountNumber, m.Sequence, common.ShortId(m.MovementId))
	fmt.Printf("%s     expected %s, recorded %s\n", common.BoxDetailPrefix(isLast), m.Expected.StringFixed(2), m.Recorded.StringFixed(2))
}

func reconcileAccounts(ctx context.Context, ledgerService *ledger.Service, accounts []models.Account, logger *zap.Logger) reconcileStats {
	stats := reconcileStats{}

	for i, account := range accounts {
		result, err := ledgerService.Reconcile(ctx, account.Id)
		if err != nil && !errors.Is(err, store.ErrLedgerMismatch) {
			logger.Error("Failed to reconcile account",
				zap.String("account_id", account.Id),
				zap.String("account_number", account.AccountNumber),
				zap.Error(err))
			continue
		}

		stats.accounts++
		stats.movements += result.Movements
		if !result.Verified() {
			stats.mismatches++
		}
		printResult(result, i == len(accounts)-1)
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	numberFlag := flag.String("number", "", "Reconcile a single account number (optional)")
	customerFlag := flag.String("customer", "", "Reconcile the accounts of one customer (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Replay only reads the store, the customer service is not needed
	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	accounts, err := common.SelectAccounts(ctx, dbService, *numberFlag, *customerFlag, logger)
	if err != nil {
		logger.Fatal("Failed to select accounts", zap.Error(err))
	}

	common.PrintHeader("LEDGER RECONCILIATION", common.DefaultWidth)
	stats := reconcileAccounts(ctx, ledger.NewService(dbService, cfg.Ledger), accounts, logger)
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d accounts, %d movements replayed, %d mismatches",
		stats.accounts, stats.movements, stats.mismatches), common.DefaultWidth)

	logger.Info("Reconciliation completed",
		zap.Int("accounts", stats.accounts),
		zap.Int("movements", stats.movements),
		zap.Int("mismatches", stats.mismatches))

	if stats.mismatches > 0 {
		loggerCleanup()
		os.Exit(1)
	}
}
