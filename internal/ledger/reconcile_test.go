package ledger

import (
	"context"
	"errors"
	"testing"

	"account-ledger-go/internal/models"
	"account-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

// tamperedStore rewrites the recorded balance of one movement on read
type tamperedStore struct {
	store.LedgerStore
	movementId string
	balance    decimal.Decimal
}

func (s *tamperedStore) ListMovements(ctx context.Context, accountId string) ([]models.Movement, error) {
	movements, err := s.LedgerStore.ListMovements(ctx, accountId)
	for i := range movements {
		if movements[i].Id == s.movementId {
			movements[i].Balance = s.balance
		}
	}
	return movements, err
}

func TestReconcile_Verified(t *testing.T) {
	svc, db := setupTestLedger(t)
	account := createTestAccount(t, db, "600001", "2000")
	post(t, svc, account.Id, models.MovementDebit, "575")
	post(t, svc, account.Id, models.MovementCredit, "600.50")

	result, err := svc.Reconcile(context.Background(), account.Id)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !result.Verified() {
		t.Fatalf("Expected verified ledger, got mismatch %+v", result.Mismatch)
	}
	if result.Movements != 2 || !result.Balance.Equal(decimal.RequireFromString("2025.50")) {
		t.Errorf("Expected 2 movements ending at 2025.50, got %d ending at %s", result.Movements, result.Balance.String())
	}
}

func TestReconcile_DetectsMismatch(t *testing.T) {
	_, db := setupTestLedger(t)
	honest := NewService(db, models.LedgerConfig{})
	account := createTestAccount(t, db, "600002", "100")
	post(t, honest, account.Id, models.MovementCredit, "10")
	bad := post(t, honest, account.Id, models.MovementDebit, "20")
	post(t, honest, account.Id, models.MovementCredit, "5")

	svc := NewService(&tamperedStore{LedgerStore: db, movementId: bad.Id, balance: decimal.NewFromInt(95)}, models.LedgerConfig{})
	result, err := svc.Reconcile(context.Background(), account.Id)
	if !errors.Is(err, store.ErrLedgerMismatch) {
		t.Fatalf("Expected ErrLedgerMismatch, got %v", err)
	}
	if result == nil || result.Mismatch == nil {
		t.Fatal("Expected mismatch details in result")
	}
	if result.Mismatch.Sequence != 2 || !result.Mismatch.Expected.Equal(decimal.NewFromInt(90)) {
		t.Errorf("Expected mismatch at sequence 2 expecting 90, got %+v", result.Mismatch)
	}
}

func TestReconcileAll(t *testing.T) {
	svc, db := setupTestLedger(t)
	a := createTestAccount(t, db, "600003", "10")
	createTestAccount(t, db, "600004", "20")
	post(t, svc, a.Id, models.MovementDebit, "4")

	results, err := svc.ReconcileAll(context.Background())
	if err != nil {
		t.Fatalf("ReconcileAll failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	for _, result := range results {
		if !result.Verified() {
			t.Errorf("Expected account %s to verify", result.AccountNumber)
		}
	}
}

func TestReconcile_UnknownAccount(t *testing.T) {
	svc, _ := setupTestLedger(t)
	if _, err := svc.Reconcile(context.Background(), "missing"); !errors.Is(err, store.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
}
