// Package statement projects account ledgers into per-account reports over
// a calendar date window.
package statement

import (
	"context"
	"fmt"
	"time"

	"account-ledger-go/internal/customer"
	"account-ledger-go/internal/models"
	"account-ledger-go/internal/store"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentAccounts bounds the per-account reads of one Generate call
const maxConcurrentAccounts = 4

// Store is the read side of the ledger a statement needs
type Store interface {
	ListAccountsByCustomer(ctx context.Context, customerId string) ([]models.Account, error)
	ListMovementsBetween(ctx context.Context, accountId string, from, to time.Time) ([]models.Movement, error)
}

type Generator struct {
	store    Store
	oracle   customer.Oracle
	location *time.Location
	now      func() time.Time
}

// NewGenerator returns a Generator that interprets calendar dates in location
// (UTC when nil).
func NewGenerator(ledgerStore Store, oracle customer.Oracle, location *time.Location) *Generator {
	if location == nil {
		location = time.UTC
	}
	return &Generator{
		store:    ledgerStore,
		oracle:   oracle,
		location: location,
		now:      time.Now,
	}
}

// Location is the time zone calendar dates are interpreted in
func (g *Generator) Location() *time.Location {
	return g.location
}

// Window returns the instants bounding the calendar days of startDate and
// endDate: the first instant of startDate and the last of endDate.
func (g *Generator) Window(startDate, endDate time.Time) (time.Time, time.Time, error) {
	sy, sm, sd := startDate.In(g.location).Date()
	ey, em, ed := endDate.In(g.location).Date()

	from := time.Date(sy, sm, sd, 0, 0, 0, 0, g.location)
	to := time.Date(ey, em, ed, 23, 59, 59, 999999999, g.location)
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s > %s",
			store.ErrInvalidDateRange, from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	return from, to, nil
}

// Generate builds one statement per account of customerId, in account
// number order, listing the movements whose timestamps fall in the window.
// A customer with no accounts yields an empty slice.
func (g *Generator) Generate(ctx context.Context, customerId string, startDate, endDate time.Time) ([]models.Statement, error) {
	from, to, err := g.Window(startDate, endDate)
	if err != nil {
		return nil, err
	}

	owner, err := g.oracle.Customer(ctx, customerId)
	if err != nil {
		return nil, err
	}

	accounts, err := g.store.ListAccountsByCustomer(ctx, customerId)
	if err != nil {
		return nil, err
	}

	generatedAt := g.now()
	statements := make([]models.Statement, len(accounts))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentAccounts)
	for i, account := range accounts {
		i, account := i, account
		group.Go(func() error {
			movements, err := g.store.ListMovementsBetween(groupCtx, account.Id, from.UTC(), to.UTC())
			if err != nil {
				return fmt.Errorf("account %s: %w", account.AccountNumber, err)
			}
			statements[i] = buildStatement(generatedAt, owner.Name, account, movements)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	zap.L().Debug("Statements generated",
		zap.String("customer_id", customerId),
		zap.Int("accounts", len(statements)),
		zap.Time("from", from),
		zap.Time("to", to))

	return statements, nil
}

func buildStatement(generatedAt time.Time, customerName string, account models.Account, movements []models.Movement) models.Statement {
	lines := make([]models.StatementLine, 0, len(movements))
	for _, m := range movements {
		lines = append(lines, models.StatementLine{
			Date:    m.CreatedAt,
			Kind:    m.Kind,
			Amount:  m.Amount,
			Balance: m.Balance,
		})
	}
	return models.Statement{
		GeneratedAt:    generatedAt,
		CustomerName:   customerName,
		AccountNumber:  account.AccountNumber,
		AccountType:    account.AccountType,
		InitialBalance: account.InitialBalance,
		Status:         account.Status,
		Movements:      lines,
	}
}
