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
	"flag"
	"fmt"
	"os"

	"account-ledger-go/internal/common"
	"account-ledger-go/internal/config"
	"account-ledger-go/internal/registry"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func parseInitialBalance(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid initial balance %q: %w", raw, err)
	}
	return balance, nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	numberFlag := flag.String("number", "", "Account number (required, at most 20 characters)")
	typeFlag := flag.String("type", "SAVINGS", "Account type: SAVINGS/Ahorro or CHECKING/Corriente")
	balanceFlag := flag.String("balance", "0", "Initial balance")
	customerFlag := flag.String("customer", "", "Owning customer id (required)")
	flag.Parse()

	if *numberFlag == "" || *customerFlag == "" {
		fmt.Fprintln(os.Stderr, "Usage: addaccount --number <account-number> --customer <customer-id> [--type SAVINGS] [--balance 0]")
		os.Exit(2)
	}

	initialBalance, err := parseInitialBalance(*balanceFlag)
	if err != nil {
		logger.Fatal("Invalid arguments", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	account, err := services.Registry.Create(ctx, registry.CreateAccountParams{
		AccountNumber:  *numberFlag,
		AccountType:    *typeFlag,
		InitialBalance: initialBalance,
		CustomerId:     *customerFlag,
	})
	if err != nil {
		fmt.Printf("✗ Account %s was not created: %v\n", *numberFlag, err)
		logger.Error("Account creation failed", zap.String("account_number", *numberFlag), zap.Error(err))
		return
	}

	common.PrintHeader("ACCOUNT CREATED", common.DefaultWidth)
	fmt.Printf("Number:          %s\n", account.AccountNumber)
	fmt.Printf("Id:              %s\n", account.Id)
	fmt.Printf("Type:            %s\n", account.AccountType)
	fmt.Printf("Initial balance: %s\n", account.InitialBalance.StringFixed(2))
	fmt.Printf("Customer:        %s\n", account.CustomerId)
	fmt.Printf("Status:          %s\n", common.StatusLabel(account.Status))
	common.PrintSeparator("=", common.DefaultWidth)
}
