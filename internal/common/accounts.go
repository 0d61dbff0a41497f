package common

import (
	"context"
	"fmt"

	"account-ledger-go/internal/models"
	"account-ledger-go/internal/store"

	"go.uber.org/zap"
)

// SelectAccounts retrieves the accounts a command-line tool works on.
// An account number selects that single account; otherwise a customer id
// selects the customer's accounts; with neither, all accounts are returned.
func SelectAccounts(ctx context.Context, accounts store.AccountStore, accountNumber, customerId string, logger *zap.Logger) ([]models.Account, error) {
	var selected []models.Account

	switch {
	case accountNumber != "":
		logger.Info("Looking up account by number", zap.String("account_number", accountNumber))
		account, err := accounts.GetAccountByNumber(ctx, accountNumber)
		if err != nil {
			return nil, fmt.Errorf("account lookup failed: %w", err)
		}
		selected = append(selected, *account)
	case customerId != "":
		logger.Info("Looking up accounts by customer", zap.String("customer_id", customerId))
		byCustomer, err := accounts.ListAccountsByCustomer(ctx, customerId)
		if err != nil {
			return nil, fmt.Errorf("failed to get accounts of customer %s: %w", customerId, err)
		}
		selected = byCustomer
	default:
		all, err := accounts.ListAccounts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get accounts: %w", err)
		}
		selected = all
	}

	logger.Info("Retrieved accounts", zap.Int("count", len(selected)))
	return selected, nil
}
