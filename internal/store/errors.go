package store

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the registry, ledger and statement
// packages matches exactly one of these with errors.Is.
var (
	ErrValidation             = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrAlreadyExists          = errors.New("already exists")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInfrastructure         = errors.New("infrastructure failure")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// Specific errors, each wrapping one kind.
var (
	ErrAccountNotFound     = fmt.Errorf("account %w", ErrNotFound)
	ErrMovementNotFound    = fmt.Errorf("movement %w", ErrNotFound)
	ErrCustomerNotFound    = fmt.Errorf("customer %w", ErrNotFound)
	ErrAccountNumberExists = fmt.Errorf("account number %w", ErrAlreadyExists)

	ErrInvalidAccountType   = fmt.Errorf("%w: invalid account type", ErrValidation)
	ErrInvalidMovementKind  = fmt.Errorf("%w: invalid movement type", ErrValidation)
	ErrInvalidAmount        = fmt.Errorf("%w: amount must be greater than 0", ErrValidation)
	ErrInvalidAccount       = fmt.Errorf("%w: invalid account", ErrValidation)
	ErrMovementImmutable    = fmt.Errorf("%w: movement type and amount cannot change once posted", ErrValidation)
	ErrMovementNotLatest    = fmt.Errorf("%w: only the latest movement of an account can be deleted", ErrValidation)
	ErrInitialBalanceLocked = fmt.Errorf("%w: initial balance cannot change once movements exist", ErrValidation)
	ErrInvalidDateRange     = fmt.Errorf("%w: start date must not be after end date", ErrValidation)

	ErrOracleUnavailable  = fmt.Errorf("%w: customer service unavailable", ErrInfrastructure)
	ErrCustomerUnverified = fmt.Errorf("%w: customer could not be verified", ErrInfrastructure)
	ErrLedgerMismatch     = fmt.Errorf("%w: ledger does not replay to its recorded balances", ErrInfrastructure)
)
