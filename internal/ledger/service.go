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

package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"account-ledger-go/internal/metrics"
	"account-ledger-go/internal/models"
	"account-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service posts movements against account ledgers and answers balance
// queries. Postings to one account are serialized in-process by a per-account
// lock, and across processes by the store's conditional append.
type Service struct {
	store      store.LedgerStore
	locks      *accountLocks
	maxRetries int
	now        func() time.Time
}

// CreateMovementParams is a movement request
type CreateMovementParams struct {
	AccountId string
	Kind      models.MovementKind
	Amount    decimal.Decimal
	Reference string
}

// MovementPatch carries the fields of an update request. Nil fields are left unchanged.
type MovementPatch struct {
	Kind      *models.MovementKind
	Amount    *decimal.Decimal
	Reference *string
}

func NewService(ledgerStore store.LedgerStore, cfg models.LedgerConfig) *Service {
	retries := cfg.MaxConflictRetries
	if retries < 0 {
		retries = 0
	}
	return &Service{
		store:      ledgerStore,
		locks:      newAccountLocks(),
		maxRetries: retries,
		now:        time.Now,
	}
}

// LockAccount takes the account's posting lock. Other writers that change
// what a posting depends on (initial balance, account removal) hold it too.
func (s *Service) LockAccount(ctx context.Context, accountId string) (func(), error) {
	release, err := s.locks.acquire(ctx, accountId)
	if err != nil {
		return nil, fmt.Errorf("waiting for lock on account %s: %w", accountId, err)
	}
	return release, nil
}

// CreateMovement validates and posts a movement. A debit that would take the
// balance below zero fails with ErrInsufficientFunds and writes nothing.
func (s *Service) CreateMovement(ctx context.Context, params CreateMovementParams) (*models.Movement, error) {
	if params.Kind != models.MovementDebit && params.Kind != models.MovementCredit {
		metrics.MovementsRejected.WithLabelValues("invalid_kind").Inc()
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidMovementKind, params.Kind)
	}
	if !params.Amount.IsPositive() {
		metrics.MovementsRejected.WithLabelValues("invalid_amount").Inc()
		return nil, fmt.Errorf("%w, got %s", store.ErrInvalidAmount, params.Amount.String())
	}

	release, err := s.LockAccount(ctx, params.AccountId)
	if err != nil {
		return nil, err
	}
	defer release()

	account, err := s.store.GetAccount(ctx, params.AccountId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.MovementsRejected.WithLabelValues("account_not_found").Inc()
		}
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		movement, err := s.post(ctx, account, params)
		if err == nil {
			return movement, nil
		}
		if !errors.Is(err, store.ErrConcurrentModification) || attempt >= s.maxRetries {
			return nil, err
		}

		metrics.LedgerConflicts.Inc()
		zap.L().Warn("Ledger moved under posting, retrying",
			zap.String("account_id", account.Id),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
}

// post reads the ledger head, checks funds and appends one movement
func (s *Service) post(ctx context.Context, account *models.Account, params CreateMovementParams) (*models.Movement, error) {
	previous, err := s.store.LatestMovement(ctx, account.Id)
	if err != nil {
		return nil, err
	}
	prior := balanceAfter(*account, previous)

	movement, err := models.NewMovement(account.Id, params.Kind, params.Amount, prior, previous, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrValidation, err)
	}
	movement.Reference = strings.TrimSpace(params.Reference)

	if movement.Balance.IsNegative() {
		metrics.MovementsRejected.WithLabelValues("insufficient_funds").Inc()
		zap.L().Warn("Movement rejected for insufficient funds",
			zap.String("account_id", account.Id),
			zap.String("account_number", account.AccountNumber),
			zap.String("balance", prior.String()),
			zap.String("amount", params.Amount.String()))
		return nil, fmt.Errorf("%w: balance %s cannot cover %s %s",
			store.ErrInsufficientFunds, prior.String(), strings.ToLower(string(params.Kind)), params.Amount.String())
	}

	stored, err := s.store.AppendMovement(ctx, movement)
	if err != nil {
		return nil, err
	}

	metrics.MovementsPosted.WithLabelValues(string(stored.Kind)).Inc()
	zap.L().Info("Movement posted",
		zap.String("movement_id", stored.Id),
		zap.String("account_id", stored.AccountId),
		zap.Int64("sequence", stored.Sequence),
		zap.String("kind", string(stored.Kind)),
		zap.String("amount", stored.Amount.String()),
		zap.String("balance", stored.Balance.String()))

	return stored, nil
}

// CurrentBalance returns the balance of an account
func (s *Service) CurrentBalance(ctx context.Context, accountId string) (decimal.Decimal, error) {
	account, err := s.store.GetAccount(ctx, accountId)
	if err != nil {
		return decimal.Zero, err
	}
	return s.BalanceOf(ctx, *account)
}

// BalanceOf returns the balance of an already loaded account
func (s *Service) BalanceOf(ctx context.Context, account models.Account) (decimal.Decimal, error) {
	latest, err := s.store.LatestMovement(ctx, account.Id)
	if err != nil {
		return decimal.Zero, err
	}
	return balanceAfter(account, latest), nil
}

func balanceAfter(account models.Account, latest *models.Movement) decimal.Decimal {
	if latest == nil {
		return account.InitialBalance
	}
	return latest.Balance
}

func (s *Service) GetMovement(ctx context.Context, movementId string) (*models.Movement, error) {
	return s.store.GetMovement(ctx, movementId)
}

// ListByAccount returns the account's movements in posting order
func (s *Service) ListByAccount(ctx context.Context, accountId string) ([]models.Movement, error) {
	if _, err := s.store.GetAccount(ctx, accountId); err != nil {
		return nil, err
	}
	return s.store.ListMovements(ctx, accountId)
}

// ListByAccountBetween returns the movements whose timestamps fall in
// [from, to], both bounds inclusive.
func (s *Service) ListByAccountBetween(ctx context.Context, accountId string, from, to time.Time) ([]models.Movement, error) {
	if from.After(to) {
		return nil, store.ErrInvalidDateRange
	}
	if _, err := s.store.GetAccount(ctx, accountId); err != nil {
		return nil, err
	}
	return s.store.ListMovementsBetween(ctx, accountId, from, to)
}

func (s *Service) ListAll(ctx context.Context) ([]models.Movement, error) {
	return s.store.ListAllMovements(ctx)
}

// UpdateMovement edits a posted movement. Only the reference can change;
// a patch that alters kind or amount fails with ErrMovementImmutable.
func (s *Service) UpdateMovement(ctx context.Context, movementId string, patch MovementPatch) (*models.Movement, error) {
	movement, err := s.store.GetMovement(ctx, movementId)
	if err != nil {
		return nil, err
	}

	if patch.Kind != nil && *patch.Kind != movement.Kind {
		return nil, fmt.Errorf("%w: movement %s is a %s", store.ErrMovementImmutable, movement.Id, movement.Kind)
	}
	if patch.Amount != nil && !patch.Amount.Equal(movement.Amount) {
		return nil, fmt.Errorf("%w: movement %s has amount %s", store.ErrMovementImmutable, movement.Id, movement.Amount.String())
	}
	if patch.Reference == nil {
		return movement, nil
	}

	updated, err := s.store.UpdateMovementReference(ctx, movement.Id, strings.TrimSpace(*patch.Reference))
	if err != nil {
		return nil, err
	}

	zap.L().Info("Movement reference updated",
		zap.String("movement_id", updated.Id),
		zap.String("reference", updated.Reference))
	return updated, nil
}

// DeleteMovement removes a movement. Only the latest movement of an account
// can be removed, which leaves the remaining chain intact.
func (s *Service) DeleteMovement(ctx context.Context, movementId string) error {
	movement, err := s.store.GetMovement(ctx, movementId)
	if err != nil {
		return err
	}

	release, err := s.LockAccount(ctx, movement.AccountId)
	if err != nil {
		return err
	}
	defer release()

	latest, err := s.store.LatestMovement(ctx, movement.AccountId)
	if err != nil {
		return err
	}
	if latest == nil || latest.Id != movement.Id {
		return fmt.Errorf("%w: movement %s is not the head of account %s",
			store.ErrMovementNotLatest, movement.Id, movement.AccountId)
	}

	if err := s.store.DeleteLatestMovement(ctx, *latest); err != nil {
		return err
	}

	zap.L().Info("Movement deleted",
		zap.String("movement_id", movement.Id),
		zap.String("account_id", movement.AccountId),
		zap.Int64("sequence", movement.Sequence))
	return nil
}
