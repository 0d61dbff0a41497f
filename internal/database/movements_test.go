package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"account-ledger-go/internal/models"
	"account-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func appendTestMovement(t *testing.T, service *Service, account *models.Account, kind models.MovementKind, amount string) *models.Movement {
	t.Helper()
	return appendTestMovementAt(t, service, account, kind, amount, time.Now())
}

func appendTestMovementAt(t *testing.T, service *Service, account *models.Account, kind models.MovementKind, amount string, at time.Time) *models.Movement {
	t.Helper()

	ctx := context.Background()
	previous, err := service.LatestMovement(ctx, account.Id)
	if err != nil {
		t.Fatalf("LatestMovement failed: %v", err)
	}
	prior := account.InitialBalance
	if previous != nil {
		prior = previous.Balance
	}

	movement, err := models.NewMovement(account.Id, kind, decimal.RequireFromString(amount), prior, previous, at)
	if err != nil {
		t.Fatalf("NewMovement failed: %v", err)
	}
	stored, err := service.AppendMovement(ctx, movement)
	if err != nil {
		t.Fatalf("AppendMovement failed: %v", err)
	}
	return stored
}

func TestAppendMovement_Chain(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := createTestAccount(t, service, "478758", "2000")

	first := appendTestMovement(t, service, account, models.MovementDebit, "575")
	if first.Sequence != 1 {
		t.Errorf("Expected sequence 1, got %d", first.Sequence)
	}
	if !first.Balance.Equal(decimal.RequireFromString("1425")) {
		t.Errorf("Expected balance 1425, got %s", first.Balance.String())
	}

	second := appendTestMovement(t, service, account, models.MovementCredit, "600.50")
	if second.Sequence != 2 {
		t.Errorf("Expected sequence 2, got %d", second.Sequence)
	}

	latest, err := service.LatestMovement(ctx, account.Id)
	if err != nil {
		t.Fatalf("LatestMovement failed: %v", err)
	}
	if latest.Id != second.Id {
		t.Errorf("Expected latest movement %s, got %s", second.Id, latest.Id)
	}
	if !latest.Balance.Equal(decimal.RequireFromString("2025.50")) {
		t.Errorf("Expected balance 2025.50, got %s", latest.Balance.String())
	}

	count, err := service.CountMovements(ctx, account.Id)
	if err != nil {
		t.Fatalf("CountMovements failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 movements, got %d", count)
	}
}

func TestAppendMovement_StaleSequenceRejected(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := createTestAccount(t, service, "1", "100")
	appendTestMovement(t, service, account, models.MovementDebit, "10")

	// Built from an empty ledger view, as a racing writer would
	stale, err := models.NewMovement(account.Id, models.MovementDebit, decimal.NewFromInt(10), account.InitialBalance, nil, time.Now())
	if err != nil {
		t.Fatalf("NewMovement failed: %v", err)
	}
	if _, err := service.AppendMovement(ctx, stale); !errors.Is(err, store.ErrConcurrentModification) {
		t.Fatalf("Expected ErrConcurrentModification, got %v", err)
	}

	count, _ := service.CountMovements(ctx, account.Id)
	if count != 1 {
		t.Errorf("Expected store unchanged with 1 movement, got %d", count)
	}
}

func TestLatestMovement_EmptyLedger(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	account := createTestAccount(t, service, "1", "0")
	latest, err := service.LatestMovement(context.Background(), account.Id)
	if err != nil {
		t.Fatalf("LatestMovement failed: %v", err)
	}
	if latest != nil {
		t.Errorf("Expected no movement, got %+v", latest)
	}
}

func TestListMovementsBetween(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := createTestAccount(t, service, "1", "1000")

	day := func(d int, h int) time.Time { return time.Date(2024, 2, d, h, 0, 0, 0, time.UTC) }
	appendTestMovementAt(t, service, account, models.MovementCredit, "1", day(9, 23))
	inside1 := appendTestMovementAt(t, service, account, models.MovementCredit, "2", day(10, 0))
	inside2 := appendTestMovementAt(t, service, account, models.MovementDebit, "3", day(11, 12))
	appendTestMovementAt(t, service, account, models.MovementCredit, "4", day(12, 0))

	from := day(10, 0)
	to := time.Date(2024, 2, 11, 23, 59, 59, 999999999, time.UTC)
	movements, err := service.ListMovementsBetween(ctx, account.Id, from, to)
	if err != nil {
		t.Fatalf("ListMovementsBetween failed: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("Expected 2 movements, got %d", len(movements))
	}
	if movements[0].Id != inside1.Id || movements[1].Id != inside2.Id {
		t.Errorf("Unexpected movements in window: %+v", movements)
	}

	all, err := service.ListAllMovements(ctx)
	if err != nil {
		t.Fatalf("ListAllMovements failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("Expected 4 movements, got %d", len(all))
	}
}

func TestUpdateMovementReference(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := createTestAccount(t, service, "1", "10")
	movement := appendTestMovement(t, service, account, models.MovementCredit, "5")

	updated, err := service.UpdateMovementReference(ctx, movement.Id, "salary")
	if err != nil {
		t.Fatalf("UpdateMovementReference failed: %v", err)
	}
	if updated.Reference != "salary" {
		t.Errorf("Expected reference salary, got %q", updated.Reference)
	}
	if !updated.Balance.Equal(movement.Balance) {
		t.Errorf("Reference update must not touch balance, got %s", updated.Balance.String())
	}

	if _, err := service.UpdateMovementReference(ctx, "missing", "x"); !errors.Is(err, store.ErrMovementNotFound) {
		t.Errorf("Expected ErrMovementNotFound, got %v", err)
	}
}

func TestDeleteLatestMovement(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	account := createTestAccount(t, service, "1", "10")
	first := appendTestMovement(t, service, account, models.MovementCredit, "5")
	second := appendTestMovement(t, service, account, models.MovementCredit, "5")

	if err := service.DeleteLatestMovement(ctx, *first); !errors.Is(err, store.ErrConcurrentModification) {
		t.Fatalf("Expected deleting a non-latest movement to fail, got %v", err)
	}
	if err := service.DeleteLatestMovement(ctx, *second); err != nil {
		t.Fatalf("DeleteLatestMovement failed: %v", err)
	}

	latest, err := service.LatestMovement(ctx, account.Id)
	if err != nil {
		t.Fatalf("LatestMovement failed: %v", err)
	}
	if latest.Id != first.Id {
		t.Errorf("Expected %s to be latest again, got %s", first.Id, latest.Id)
	}
}
