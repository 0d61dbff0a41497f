package store

import (
	"context"
	"time"

	"account-ledger-go/internal/models"
)

// AccountStore persists account records. Implementations enforce account
// number uniqueness and report a violation as ErrAccountNumberExists.
type AccountStore interface {
	CreateAccount(ctx context.Context, account models.Account) (*models.Account, error)
	GetAccount(ctx context.Context, accountId string) (*models.Account, error)
	GetAccountByNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	ListAccountsByCustomer(ctx context.Context, customerId string) ([]models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	UpdateAccount(ctx context.Context, account models.Account) (*models.Account, error)
	DeleteAccount(ctx context.Context, accountId string) error
}

// MovementStore persists ledger movements.
//
// AppendMovement is a conditional write: it succeeds only if movement.Sequence
// is exactly one past the account's latest stored sequence, and returns
// ErrConcurrentModification otherwise.
type MovementStore interface {
	AppendMovement(ctx context.Context, movement models.Movement) (*models.Movement, error)
	LatestMovement(ctx context.Context, accountId string) (*models.Movement, error)
	GetMovement(ctx context.Context, movementId string) (*models.Movement, error)
	ListMovements(ctx context.Context, accountId string) ([]models.Movement, error)
	ListMovementsBetween(ctx context.Context, accountId string, from, to time.Time) ([]models.Movement, error)
	ListAllMovements(ctx context.Context) ([]models.Movement, error)
	CountMovements(ctx context.Context, accountId string) (int64, error)
	UpdateMovementReference(ctx context.Context, movementId, reference string) (*models.Movement, error)
	DeleteLatestMovement(ctx context.Context, movement models.Movement) error
}

// LedgerStore defines the contract that every backend must satisfy.
type LedgerStore interface {
	AccountStore
	MovementStore

	Ping(ctx context.Context) error
	Close()
}
