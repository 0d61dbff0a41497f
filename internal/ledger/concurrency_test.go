package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"account-ledger-go/internal/metrics"
	"account-ledger-go/internal/models"
	"account-ledger-go/internal/store"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

// racingStore lets a competing writer land a movement right before each of
// the next `races` appends, as another process sharing the database would.
type racingStore struct {
	store.LedgerStore

	mu     sync.Mutex
	races  int
	kind   models.MovementKind
	amount decimal.Decimal
}

func (r *racingStore) AppendMovement(ctx context.Context, movement models.Movement) (*models.Movement, error) {
	r.mu.Lock()
	race := r.races > 0
	if race {
		r.races--
	}
	r.mu.Unlock()

	if race {
		if err := r.competingWrite(ctx, movement.AccountId); err != nil {
			return nil, err
		}
	}
	return r.LedgerStore.AppendMovement(ctx, movement)
}

func (r *racingStore) competingWrite(ctx context.Context, accountId string) error {
	account, err := r.LedgerStore.GetAccount(ctx, accountId)
	if err != nil {
		return err
	}
	previous, err := r.LedgerStore.LatestMovement(ctx, accountId)
	if err != nil {
		return err
	}
	competing, err := models.NewMovement(accountId, r.kind, r.amount, balanceAfter(*account, previous), previous, time.Now())
	if err != nil {
		return err
	}
	_, err = r.LedgerStore.AppendMovement(ctx, competing)
	return err
}

func TestCreateMovement_RetriesAfterConflict(t *testing.T) {
	_, db := setupTestLedger(t)
	racing := &racingStore{LedgerStore: db, races: 2, kind: models.MovementCredit, amount: decimal.NewFromInt(1)}
	svc := NewService(racing, models.LedgerConfig{MaxConflictRetries: 5})
	account := createTestAccount(t, db, "300001", "100")

	before := testutil.ToFloat64(metrics.LedgerConflicts)
	movement := post(t, svc, account.Id, models.MovementDebit, "50")

	if movement.Sequence != 3 {
		t.Errorf("Expected debit to land after two competing writes at sequence 3, got %d", movement.Sequence)
	}
	if !movement.Balance.Equal(decimal.NewFromInt(52)) {
		t.Errorf("Expected balance 52, got %s", movement.Balance.String())
	}
	if delta := testutil.ToFloat64(metrics.LedgerConflicts) - before; delta != 2 {
		t.Errorf("Expected 2 conflicts recorded, got %v", delta)
	}
}

func TestCreateMovement_RetryRechecksFunds(t *testing.T) {
	_, db := setupTestLedger(t)
	racing := &racingStore{LedgerStore: db, races: 1, kind: models.MovementDebit, amount: decimal.NewFromInt(8)}
	svc := NewService(racing, models.LedgerConfig{MaxConflictRetries: 5})
	account := createTestAccount(t, db, "300002", "10")

	_, err := svc.CreateMovement(context.Background(), CreateMovementParams{
		AccountId: account.Id,
		Kind:      models.MovementDebit,
		Amount:    decimal.NewFromInt(5),
	})
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds after competing debit, got %v", err)
	}
	assertBalance(t, svc, account.Id, "2")
}

func TestCreateMovement_RetriesExhausted(t *testing.T) {
	_, db := setupTestLedger(t)
	racing := &racingStore{LedgerStore: db, races: 10, kind: models.MovementCredit, amount: decimal.NewFromInt(1)}
	svc := NewService(racing, models.LedgerConfig{MaxConflictRetries: 1})
	account := createTestAccount(t, db, "300003", "10")

	_, err := svc.CreateMovement(context.Background(), CreateMovementParams{
		AccountId: account.Id,
		Kind:      models.MovementCredit,
		Amount:    decimal.NewFromInt(5),
	})
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Fatalf("Expected ErrConcurrentModification, got %v", err)
	}
}

func TestCreateMovement_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	svc, db := setupTestLedger(t)
	account := createTestAccount(t, db, "400001", "1000")

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateMovement(context.Background(), CreateMovementParams{
				AccountId: account.Id,
				Kind:      models.MovementDebit,
				Amount:    decimal.NewFromInt(300),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, store.ErrInsufficientFunds):
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}

	if succeeded != 3 {
		t.Errorf("Expected exactly 3 debits of 300 to fit in 1000, got %d", succeeded)
	}
	assertBalance(t, svc, account.Id, "100")

	result, err := svc.Reconcile(context.Background(), account.Id)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if result.Movements != 3 || !result.Verified() {
		t.Errorf("Expected 3 verified movements, got %d verified=%v", result.Movements, result.Verified())
	}
}

func TestCreateMovement_TwoEnginesShareStore(t *testing.T) {
	_, db := setupTestLedger(t)
	engines := []*Service{
		NewService(db, models.LedgerConfig{MaxConflictRetries: 20}),
		NewService(db, models.LedgerConfig{MaxConflictRetries: 20}),
	}
	account := createTestAccount(t, db, "400002", "1000")

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for _, engine := range engines {
		for i := 0; i < 6; i++ {
			wg.Add(1)
			go func(engine *Service) {
				defer wg.Done()
				_, err := engine.CreateMovement(context.Background(), CreateMovementParams{
					AccountId: account.Id,
					Kind:      models.MovementDebit,
					Amount:    decimal.NewFromInt(100),
				})
				if err != nil && !errors.Is(err, store.ErrConcurrentModification) && !errors.Is(err, store.ErrInsufficientFunds) {
					t.Errorf("Unexpected error: %v", err)
				}
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}(engine)
		}
	}
	wg.Wait()

	if succeeded > 10 {
		t.Fatalf("Expected at most 10 debits of 100 from 1000, got %d", succeeded)
	}
	balance, err := engines[0].CurrentBalance(context.Background(), account.Id)
	if err != nil {
		t.Fatalf("CurrentBalance failed: %v", err)
	}
	want := decimal.NewFromInt(int64(1000 - 100*succeeded))
	if !balance.Equal(want) {
		t.Errorf("Expected balance %s, got %s", want.String(), balance.String())
	}
	if _, err := engines[1].Reconcile(context.Background(), account.Id); err != nil {
		t.Errorf("Reconcile failed: %v", err)
	}
}

func TestCreateMovement_AccountsAreIndependent(t *testing.T) {
	svc, db := setupTestLedger(t)

	accounts := make([]*models.Account, 4)
	for i := range accounts {
		accounts[i] = createTestAccount(t, db, fmt.Sprintf("50000%d", i), "0")
	}

	var wg sync.WaitGroup
	for _, account := range accounts {
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func(accountId string) {
				defer wg.Done()
				if _, err := svc.CreateMovement(context.Background(), CreateMovementParams{
					AccountId: accountId,
					Kind:      models.MovementCredit,
					Amount:    decimal.NewFromInt(1),
				}); err != nil {
					t.Errorf("CreateMovement failed: %v", err)
				}
			}(account.Id)
		}
	}
	wg.Wait()

	for _, account := range accounts {
		assertBalance(t, svc, account.Id, "25")
	}
	if svc.locks.size() != 0 {
		t.Errorf("Expected lock table to drain, has %d entries", svc.locks.size())
	}
}
