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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	var accountType, initialBalanceStr, createdAtStr, updatedAtStr string
	err := row.Scan(&account.Id, &account.AccountNumber, &accountType, &initialBalanceStr,
		&account.Status, &account.CustomerId, &createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, err
	}

	account.AccountType = models.AccountType(accountType)
	account.InitialBalance, err = decimal.NewFromString(initialBalanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse initial balance '%s': %w", initialBalanceStr, err)
	}
	if account.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return nil, err
	}
	if account.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Service) CreateAccount(ctx context.Context, account models.Account) (*models.Account, error) {
	if account.Id == "" {
		account.Id = uuid.New().String()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	zap.L().Info("Inserting account",
		zap.String("account_id", account.Id),
		zap.String("account_number", account.AccountNumber),
		zap.String("customer_id", account.CustomerId))

	_, err := s.db.ExecContext(ctx, queryInsertAccount,
		account.Id, account.AccountNumber, string(account.AccountType), account.InitialBalance.String(),
		account.Status, account.CustomerId, formatTimestamp(now), formatTimestamp(now))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrAccountNumberExists, account.AccountNumber)
		}
		zap.L().Error("Failed to insert account", zap.String("account_number", account.AccountNumber), zap.Error(err))
		return nil, dbError("insert account", err)
	}

	return &account, nil
}

func (s *Service) GetAccount(ctx context.Context, accountId string) (*models.Account, error) {
	zap.L().Debug("Querying account by ID", zap.String("account_id", accountId))

	account, err := scanAccount(s.db.QueryRowContext(ctx, queryGetAccountById, accountId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %s", store.ErrAccountNotFound, accountId)
		}
		zap.L().Error("Failed to query account by ID", zap.String("account_id", accountId), zap.Error(err))
		return nil, dbError("query account by ID", err)
	}
	return account, nil
}

func (s *Service) GetAccountByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	zap.L().Debug("Querying account by number", zap.String("account_number", accountNumber))

	account, err := scanAccount(s.db.QueryRowContext(ctx, queryGetAccountByNumber, accountNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: number %s", store.ErrAccountNotFound, accountNumber)
		}
		zap.L().Error("Failed to query account by number", zap.String("account_number", accountNumber), zap.Error(err))
		return nil, dbError("query account by number", err)
	}
	return account, nil
}

func (s *Service) ListAccountsByCustomer(ctx context.Context, customerId string) ([]models.Account, error) {
	zap.L().Debug("Querying accounts by customer", zap.String("customer_id", customerId))
	return s.queryAccounts(ctx, queryGetAccountsByCustomer, customerId)
}

func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	zap.L().Debug("Querying all accounts")
	return s.queryAccounts(ctx, queryGetAllAccounts)
}

func (s *Service) queryAccounts(ctx context.Context, query string, args ...any) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		zap.L().Error("Failed to query accounts", zap.Error(err))
		return nil, dbError("query accounts", err)
	}
	defer closeRows(rows)

	accounts := []models.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, dbError("scan account row", err)
		}
		accounts = append(accounts, *account)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during account row iteration", zap.Error(err))
		return nil, dbError("iterate account rows", err)
	}

	return accounts, nil
}

func (s *Service) UpdateAccount(ctx context.Context, account models.Account) (*models.Account, error) {
	account.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, queryUpdateAccount,
		account.AccountNumber, string(account.AccountType), account.InitialBalance.String(),
		account.Status, formatTimestamp(account.UpdatedAt), account.Id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrAccountNumberExists, account.AccountNumber)
		}
		zap.L().Error("Failed to update account", zap.String("account_id", account.Id), zap.Error(err))
		return nil, dbError("update account", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, dbError("get rows affected", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: id %s", store.ErrAccountNotFound, account.Id)
	}

	return s.GetAccount(ctx, account.Id)
}

// DeleteAccount removes an account that has no movements. If movements
// appeared since the caller checked, nothing is removed and
// ErrConcurrentModification is returned.
func (s *Service) DeleteAccount(ctx context.Context, accountId string) error {
	result, err := s.db.ExecContext(ctx, queryDeleteAccount, accountId, accountId)
	if err != nil {
		zap.L().Error("Failed to delete account", zap.String("account_id", accountId), zap.Error(err))
		return dbError("delete account", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return dbError("get rows affected", err)
	}
	if rowsAffected == 0 {
		if _, err := s.GetAccount(ctx, accountId); err != nil {
			return err
		}
		return fmt.Errorf("account %s has movements: %w", accountId, store.ErrConcurrentModification)
	}

	zap.L().Info("Account deleted", zap.String("account_id", accountId))
	return nil
}
