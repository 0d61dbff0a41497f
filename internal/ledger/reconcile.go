package ledger

import (
	"context"
	"fmt"
	"sort"

	"account-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReconcileResult is the outcome of replaying one account ledger
type ReconcileResult struct {
	AccountId     string
	AccountNumber string
	Movements     int
	Balance       decimal.Decimal

	// Set when the replay disagrees with a stored movement
	Mismatch *Mismatch
}

// Mismatch describes the first movement whose stored balance differs from the replay
type Mismatch struct {
	MovementId string
	Sequence   int64
	Expected   decimal.Decimal
	Recorded   decimal.Decimal
}

func (r *ReconcileResult) Verified() bool {
	return r.Mismatch == nil
}

// Reconcile replays an account's ledger from its initial balance and checks
// that every stored balance equals the running fold, that no balance is
// negative and that sequences are contiguous. A disagreement is reported in
// the result and as ErrLedgerMismatch.
func (s *Service) Reconcile(ctx context.Context, accountId string) (*ReconcileResult, error) {
	account, err := s.store.GetAccount(ctx, accountId)
	if err != nil {
		return nil, err
	}
	movements, err := s.store.ListMovements(ctx, accountId)
	if err != nil {
		return nil, err
	}
	sort.Slice(movements, func(i, j int) bool { return movements[i].Sequence < movements[j].Sequence })

	result := &ReconcileResult{
		AccountId:     account.Id,
		AccountNumber: account.AccountNumber,
		Movements:     len(movements),
		Balance:       account.InitialBalance,
	}

	for i, movement := range movements {
		expected := movement.Kind.Apply(result.Balance, movement.Amount)
		contiguous := movement.Sequence == int64(i+1)
		if !contiguous || !expected.Equal(movement.Balance) || movement.Balance.IsNegative() {
			result.Mismatch = &Mismatch{
				MovementId: movement.Id,
				Sequence:   movement.Sequence,
				Expected:   expected,
				Recorded:   movement.Balance,
			}
			zap.L().Error("Ledger replay mismatch",
				zap.String("account_id", account.Id),
				zap.String("movement_id", movement.Id),
				zap.Int64("sequence", movement.Sequence),
				zap.Bool("contiguous", contiguous),
				zap.String("expected", expected.String()),
				zap.String("recorded", movement.Balance.String()))
			return result, fmt.Errorf("%w: account %s at sequence %d", store.ErrLedgerMismatch, account.AccountNumber, movement.Sequence)
		}
		result.Balance = movement.Balance
	}

	zap.L().Debug("Ledger replay verified",
		zap.String("account_id", account.Id),
		zap.Int("movements", result.Movements),
		zap.String("balance", result.Balance.String()))
	return result, nil
}

// ReconcileAll replays every account ledger and returns one result per
// account in store order. Mismatches are reported in the results, not as
// an error; the error is reserved for failures reading the store.
func (s *Service) ReconcileAll(ctx context.Context) ([]ReconcileResult, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]ReconcileResult, 0, len(accounts))
	for _, account := range accounts {
		result, err := s.Reconcile(ctx, account.Id)
		if err != nil && result == nil {
			return nil, err
		}
		results = append(results, *result)
	}
	return results, nil
}
