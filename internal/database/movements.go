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

func scanMovement(row rowScanner) (*models.Movement, error) {
	var movement models.Movement
	var kind, amountStr, balanceStr, createdAtStr string
	err := row.Scan(&movement.Id, &movement.AccountId, &movement.Sequence, &kind,
		&amountStr, &balanceStr, &movement.Reference, &createdAtStr)
	if err != nil {
		return nil, err
	}

	movement.Kind = models.MovementKind(kind)
	movement.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	movement.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
	}
	if movement.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return nil, err
	}
	return &movement, nil
}

// AppendMovement atomically checks that movement.Sequence follows the
// account's latest sequence and records the movement
func (s *Service) AppendMovement(ctx context.Context, movement models.Movement) (*models.Movement, error) {
	if movement.Id == "" {
		movement.Id = uuid.New().String()
	}

	// Start database transaction for atomicity
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, dbError("begin transaction", err)
	}
	defer tx.Rollback()

	var lastSequence int64
	if err := tx.QueryRowContext(ctx, queryGetLastSequence, movement.AccountId).Scan(&lastSequence); err != nil {
		return nil, dbError("get last sequence", err)
	}
	if lastSequence != movement.Sequence-1 {
		return nil, fmt.Errorf("ledger of account %s is at sequence %d, movement expects %d - %w",
			movement.AccountId, lastSequence, movement.Sequence-1, store.ErrConcurrentModification)
	}

	_, err = tx.ExecContext(ctx, queryInsertMovement,
		movement.Id, movement.AccountId, movement.Sequence, string(movement.Kind),
		movement.Amount.String(), movement.Balance.String(), movement.Reference, formatTimestamp(movement.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("sequence %d already taken on account %s - %w",
				movement.Sequence, movement.AccountId, store.ErrConcurrentModification)
		}
		return nil, dbError("insert movement", err)
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("commit lost race on account %s - %w", movement.AccountId, store.ErrConcurrentModification)
		}
		return nil, dbError("commit transaction", err)
	}

	zap.L().Debug("Movement stored",
		zap.String("movement_id", movement.Id),
		zap.String("account_id", movement.AccountId),
		zap.Int64("sequence", movement.Sequence))

	return &movement, nil
}

// LatestMovement returns the last movement of an account's ledger, or nil
// when the ledger is empty
func (s *Service) LatestMovement(ctx context.Context, accountId string) (*models.Movement, error) {
	movement, err := scanMovement(s.db.QueryRowContext(ctx, queryGetLatestMovement, accountId))
	if err == sql.ErrNoRows {
		// No movements means the balance is the initial balance
		return nil, nil
	}
	if err != nil {
		zap.L().Error("Failed to get latest movement", zap.String("account_id", accountId), zap.Error(err))
		return nil, dbError("get latest movement", err)
	}
	return movement, nil
}

func (s *Service) GetMovement(ctx context.Context, movementId string) (*models.Movement, error) {
	movement, err := scanMovement(s.db.QueryRowContext(ctx, queryGetMovementById, movementId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %s", store.ErrMovementNotFound, movementId)
		}
		zap.L().Error("Failed to query movement", zap.String("movement_id", movementId), zap.Error(err))
		return nil, dbError("query movement", err)
	}
	return movement, nil
}

func (s *Service) ListMovements(ctx context.Context, accountId string) ([]models.Movement, error) {
	zap.L().Debug("Getting movements", zap.String("account_id", accountId))
	return s.queryMovements(ctx, queryGetMovementsByAccount, accountId)
}

// ListMovementsBetween returns the movements of an account with from <= created_at <= to
func (s *Service) ListMovementsBetween(ctx context.Context, accountId string, from, to time.Time) ([]models.Movement, error) {
	zap.L().Debug("Getting movements in window",
		zap.String("account_id", accountId),
		zap.Time("from", from),
		zap.Time("to", to))
	return s.queryMovements(ctx, queryGetMovementsByAccountBetween, accountId, formatTimestamp(from), formatTimestamp(to))
}

func (s *Service) ListAllMovements(ctx context.Context) ([]models.Movement, error) {
	zap.L().Debug("Getting all movements")
	return s.queryMovements(ctx, queryGetAllMovements)
}

func (s *Service) queryMovements(ctx context.Context, query string, args ...any) ([]models.Movement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("query movements", err)
	}
	defer closeRows(rows)

	movements := []models.Movement{}
	for rows.Next() {
		movement, err := scanMovement(rows)
		if err != nil {
			return nil, dbError("scan movement", err)
		}
		movements = append(movements, *movement)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during movement row iteration", zap.Error(err))
		return nil, dbError("iterate movement rows", err)
	}

	return movements, nil
}

func (s *Service) CountMovements(ctx context.Context, accountId string) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, queryCountMovements, accountId).Scan(&count); err != nil {
		return 0, dbError("count movements", err)
	}
	return count, nil
}

func (s *Service) UpdateMovementReference(ctx context.Context, movementId, reference string) (*models.Movement, error) {
	result, err := s.db.ExecContext(ctx, queryUpdateMovementReference, reference, movementId)
	if err != nil {
		return nil, dbError("update movement reference", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, dbError("get rows affected", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: id %s", store.ErrMovementNotFound, movementId)
	}

	return s.GetMovement(ctx, movementId)
}

// DeleteLatestMovement removes movement only while it is still the last
// entry of its account's ledger
func (s *Service) DeleteLatestMovement(ctx context.Context, movement models.Movement) error {
	result, err := s.db.ExecContext(ctx, queryDeleteLatestMovement, movement.Id, movement.AccountId)
	if err != nil {
		return dbError("delete movement", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return dbError("get rows affected", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("movement %s is no longer the latest of account %s - %w",
			movement.Id, movement.AccountId, store.ErrConcurrentModification)
	}

	zap.L().Debug("Movement row deleted",
		zap.String("movement_id", movement.Id),
		zap.String("account_id", movement.AccountId),
		zap.Int64("sequence", movement.Sequence))
	return nil
}
