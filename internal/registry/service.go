// Package registry manages the lifecycle of accounts: creation against the
// customer service, modification and removal.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"account-ledger-go/internal/customer"
	"account-ledger-go/internal/metrics"
	"account-ledger-go/internal/models"
	"account-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store is the persistence the registry needs
type Store interface {
	store.AccountStore
	CountMovements(ctx context.Context, accountId string) (int64, error)
}

// Ledger is the part of the ledger engine the registry coordinates with.
// LockAccount serializes account changes with movement postings.
type Ledger interface {
	LockAccount(ctx context.Context, accountId string) (func(), error)
	BalanceOf(ctx context.Context, account models.Account) (decimal.Decimal, error)
}

// DeleteOutcome reports how Delete removed an account
type DeleteOutcome string

const (
	// DeleteSoft marks the account inactive because movements reference it
	DeleteSoft DeleteOutcome = "soft"
	// DeleteHard removes the account row
	DeleteHard DeleteOutcome = "hard"
)

type CreateAccountParams struct {
	AccountNumber  string
	AccountType    string
	InitialBalance decimal.Decimal
	CustomerId     string
}

// AccountPatch carries the fields of an update request. Nil fields keep
// their current value.
type AccountPatch struct {
	AccountNumber  *string
	AccountType    *string
	InitialBalance *decimal.Decimal
	Status         *bool
}

type Service struct {
	store         Store
	oracle        customer.Oracle
	ledger        Ledger
	oracleTimeout time.Duration
}

func NewService(accountStore Store, oracle customer.Oracle, ledger Ledger, oracleTimeout time.Duration) *Service {
	return &Service{
		store:         accountStore,
		oracle:        oracle,
		ledger:        ledger,
		oracleTimeout: oracleTimeout,
	}
}

// Create validates and persists a new account. Checks run in order: account
// type, number uniqueness, customer existence. The customer check fails
// closed: if the customer service cannot answer, nothing is written.
func (s *Service) Create(ctx context.Context, params CreateAccountParams) (*models.Account, error) {
	accountType, ok := models.ParseAccountType(params.AccountType)
	if !ok {
		metrics.AccountsRejected.WithLabelValues("invalid_type").Inc()
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidAccountType, params.AccountType)
	}

	account, err := models.NewAccount(params.AccountNumber, accountType, params.InitialBalance, params.CustomerId)
	if err != nil {
		metrics.AccountsRejected.WithLabelValues("invalid_account").Inc()
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidAccount, err)
	}

	if err := s.ensureNumberFree(ctx, account.AccountNumber, ""); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			metrics.AccountsRejected.WithLabelValues("number_exists").Inc()
		}
		return nil, err
	}

	if err := s.verifyCustomer(ctx, account.CustomerId); err != nil {
		return nil, err
	}

	created, err := s.store.CreateAccount(ctx, account)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			metrics.AccountsRejected.WithLabelValues("number_exists").Inc()
		}
		return nil, err
	}

	metrics.AccountsCreated.Inc()
	zap.L().Info("Account created",
		zap.String("account_id", created.Id),
		zap.String("account_number", created.AccountNumber),
		zap.String("account_type", string(created.AccountType)),
		zap.String("initial_balance", created.InitialBalance.String()),
		zap.String("customer_id", created.CustomerId))

	return created, nil
}

func (s *Service) verifyCustomer(ctx context.Context, customerId string) error {
	if s.oracleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.oracleTimeout)
		defer cancel()
	}

	exists, err := s.oracle.Exists(ctx, customerId)
	if err != nil {
		metrics.AccountsRejected.WithLabelValues("customer_unverified").Inc()
		zap.L().Error("Customer could not be verified, refusing account",
			zap.String("customer_id", customerId),
			zap.Error(err))
		return fmt.Errorf("%w: id %s: %w", store.ErrCustomerUnverified, customerId, err)
	}
	if !exists {
		metrics.AccountsRejected.WithLabelValues("customer_not_found").Inc()
		return fmt.Errorf("%w: id %s", store.ErrCustomerNotFound, customerId)
	}
	return nil
}

// ensureNumberFree fails with ErrAccountNumberExists if accountNumber belongs
// to an account other than exceptId
func (s *Service) ensureNumberFree(ctx context.Context, accountNumber, exceptId string) error {
	existing, err := s.store.GetAccountByNumber(ctx, accountNumber)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.Id == exceptId {
		return nil
	}
	return fmt.Errorf("%w: %s", store.ErrAccountNumberExists, accountNumber)
}

// Update applies patch to an account. The initial balance can only change
// while the account has no movements.
func (s *Service) Update(ctx context.Context, accountId string, patch AccountPatch) (*models.Account, error) {
	var accountType models.AccountType
	if patch.AccountType != nil {
		var ok bool
		if accountType, ok = models.ParseAccountType(*patch.AccountType); !ok {
			return nil, fmt.Errorf("%w: %q", store.ErrInvalidAccountType, *patch.AccountType)
		}
	}

	release, err := s.ledger.LockAccount(ctx, accountId)
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := s.store.GetAccount(ctx, accountId)
	if err != nil {
		return nil, err
	}
	updated := *existing

	if patch.AccountNumber != nil {
		number := strings.TrimSpace(*patch.AccountNumber)
		if err := models.ValidateAccountNumber(number); err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrInvalidAccount, err)
		}
		if number != existing.AccountNumber {
			if err := s.ensureNumberFree(ctx, number, existing.Id); err != nil {
				return nil, err
			}
		}
		updated.AccountNumber = number
	}
	if patch.AccountType != nil {
		updated.AccountType = accountType
	}
	if patch.InitialBalance != nil && !patch.InitialBalance.Equal(existing.InitialBalance) {
		if patch.InitialBalance.IsNegative() {
			return nil, fmt.Errorf("%w: initial balance must not be negative, got %s",
				store.ErrInvalidAccount, patch.InitialBalance.String())
		}
		count, err := s.store.CountMovements(ctx, existing.Id)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("%w: account %s has %d movements", store.ErrInitialBalanceLocked, existing.AccountNumber, count)
		}
		updated.InitialBalance = *patch.InitialBalance
	}
	if patch.Status != nil {
		updated.Status = *patch.Status
	}

	stored, err := s.store.UpdateAccount(ctx, updated)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Account updated",
		zap.String("account_id", stored.Id),
		zap.String("account_number", stored.AccountNumber),
		zap.String("account_type", string(stored.AccountType)),
		zap.Bool("status", stored.Status))
	return stored, nil
}

// Delete removes an account. An account referenced by movements is kept
// and marked inactive instead.
func (s *Service) Delete(ctx context.Context, accountId string) (DeleteOutcome, error) {
	release, err := s.ledger.LockAccount(ctx, accountId)
	if err != nil {
		return "", err
	}
	defer release()

	account, err := s.store.GetAccount(ctx, accountId)
	if err != nil {
		return "", err
	}

	count, err := s.store.CountMovements(ctx, account.Id)
	if err != nil {
		return "", err
	}

	if count > 0 {
		if account.Status {
			account.Status = false
			if _, err := s.store.UpdateAccount(ctx, *account); err != nil {
				return "", err
			}
		}
		zap.L().Info("Account deactivated",
			zap.String("account_id", account.Id),
			zap.String("account_number", account.AccountNumber),
			zap.Int64("movements", count))
		return DeleteSoft, nil
	}

	if err := s.store.DeleteAccount(ctx, account.Id); err != nil {
		return "", err
	}
	zap.L().Info("Account deleted",
		zap.String("account_id", account.Id),
		zap.String("account_number", account.AccountNumber))
	return DeleteHard, nil
}

func (s *Service) Get(ctx context.Context, accountId string) (*models.Account, error) {
	return s.store.GetAccount(ctx, accountId)
}

func (s *Service) GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	return s.store.GetAccountByNumber(ctx, strings.TrimSpace(accountNumber))
}

func (s *Service) ListByCustomer(ctx context.Context, customerId string) ([]models.Account, error) {
	return s.store.ListAccountsByCustomer(ctx, customerId)
}

func (s *Service) List(ctx context.Context) ([]models.Account, error) {
	return s.store.ListAccounts(ctx)
}

// View returns the account together with its current balance
func (s *Service) View(ctx context.Context, account models.Account) (models.AccountView, error) {
	balance, err := s.ledger.BalanceOf(ctx, account)
	if err != nil {
		return models.AccountView{}, err
	}
	return models.AccountView{
		Id:             account.Id,
		AccountNumber:  account.AccountNumber,
		AccountType:    account.AccountType,
		InitialBalance: account.InitialBalance,
		Balance:        balance,
		Status:         account.Status,
		CustomerId:     account.CustomerId,
	}, nil
}

// Views maps View over accounts
func (s *Service) Views(ctx context.Context, accounts []models.Account) ([]models.AccountView, error) {
	views := make([]models.AccountView, 0, len(accounts))
	for _, account := range accounts {
		view, err := s.View(ctx, account)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}
