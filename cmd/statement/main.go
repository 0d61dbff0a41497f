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
	"time"

	"account-ledger-go/internal/common"
	"account-ledger-go/internal/config"
	"account-ledger-go/internal/models"

	"go.uber.org/zap"
)

func printLine(line models.StatementLine, location *time.Location, isLast bool) {
	fmt.Printf("%s %s  %-6s %15s  → %15s\n",
		common.BoxPrefix(isLast),
		line.Date.In(location).Format("2006-01-02 15:04:05"),
		line.Kind,
		line.Amount.StringFixed(2),
		line.Balance.StringFixed(2))
}

func printStatement(statement models.Statement, location *time.Location) {
	fmt.Printf("\n┌─ Account: %s (%s, %s)\n", statement.AccountNumber, statement.AccountType, common.StatusLabel(statement.Status))
	fmt.Printf("│  Customer: %s\n", statement.CustomerName)
	fmt.Printf("│  Initial balance: %s\n", statement.InitialBalance.StringFixed(2))
	fmt.Printf("│  Movements: %d\n", len(statement.Movements))
	common.PrintBoxSeparator(78)

	if len(statement.Movements) == 0 {
		fmt.Println("└  no movements in window")
		return
	}
	for i, line := range statement.Movements {
		printLine(line, location, i == len(statement.Movements)-1)
	}
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	customerFlag := flag.String("customer", "", "Customer id (required)")
	fromFlag := flag.String("from", "", "First day, YYYY-MM-DD (default: 30 days ago)")
	toFlag := flag.String("to", "", "Last day, YYYY-MM-DD (default: today)")
	flag.Parse()

	if *customerFlag == "" {
		fmt.Fprintln(os.Stderr, "Usage: statement --customer <customer-id> [--from YYYY-MM-DD] [--to YYYY-MM-DD]")
		os.Exit(2)
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

	location := services.Statements.Location()
	to := time.Now().In(location)
	from := to.AddDate(0, 0, -30)
	if *fromFlag != "" {
		if from, err = time.ParseInLocation(time.DateOnly, *fromFlag, location); err != nil {
			logger.Fatal("Invalid --from date", zap.String("from", *fromFlag), zap.Error(err))
		}
	}
	if *toFlag != "" {
		if to, err = time.ParseInLocation(time.DateOnly, *toFlag, location); err != nil {
			logger.Fatal("Invalid --to date", zap.String("to", *toFlag), zap.Error(err))
		}
	}

	statements, err := services.Statements.Generate(ctx, *customerFlag, from, to)
	if err != nil {
		logger.Fatal("Failed to generate statement", zap.String("customer_id", *customerFlag), zap.Error(err))
	}

	common.PrintHeader(fmt.Sprintf("ACCOUNT STATEMENT %s → %s", from.Format(time.DateOnly), to.Format(time.DateOnly)), common.DefaultWidth)

	movementCount := 0
	for _, statement := range statements {
		printStatement(statement, location)
		movementCount += len(statement.Movements)
	}

	common.PrintFooter(fmt.Sprintf("SUMMARY: %d accounts, %d movements", len(statements), movementCount), common.DefaultWidth)

	logger.Info("Statement generated",
		zap.String("customer_id", *customerFlag),
		zap.Int("accounts", len(statements)),
		zap.Int("movements", movementCount))
}
