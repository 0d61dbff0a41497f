// Package customer answers questions about account owners held by the
// customer service. It never creates or changes customer records.
package customer

import (
	"context"

	"account-ledger-go/internal/models"
)

// Oracle reports whether a customer exists and resolves display data.
//
// Exists returns (false, nil) for an unknown customer. Any failure to get an
// answer (transport error, timeout, unexpected status) is returned as an
// error matching store.ErrOracleUnavailable. Customer returns an error
// matching store.ErrCustomerNotFound for an unknown customer.
type Oracle interface {
	Exists(ctx context.Context, customerId string) (bool, error)
	Customer(ctx context.Context, customerId string) (*models.Customer, error)
}
