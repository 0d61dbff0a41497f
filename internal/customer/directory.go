package customer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"account-ledger-go/internal/models"
	"account-ledger-go/internal/store"

	"gopkg.in/yaml.v2"
)

// Compile-time check: *Directory must satisfy Oracle.
var _ Oracle = (*Directory)(nil)

type directoryFile struct {
	Customers []models.Customer `yaml:"customers"`
}

// Directory is a static, in-memory Oracle. It backs local runs without a
// customer service and doubles as the test fake.
type Directory struct {
	mu        sync.RWMutex
	customers map[string]models.Customer
	failWith  error
}

func NewDirectory(customers ...models.Customer) *Directory {
	d := &Directory{customers: make(map[string]models.Customer, len(customers))}
	for _, c := range customers {
		d.customers[c.Id] = c
	}
	return d
}

// LoadDirectory reads a YAML file of the form
//
//	customers:
//	  - id: "1"
//	    name: Jose Lema
//	    status: true
func LoadDirectory(path string) (*Directory, error) {
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", path, err)
	}

	var file directoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", path, err)
	}

	for i, c := range file.Customers {
		if c.Id == "" {
			return nil, fmt.Errorf("customer at index %d missing id", i)
		}
		if c.Name == "" {
			return nil, fmt.Errorf("customer at index %d missing name", i)
		}
	}

	return NewDirectory(file.Customers...), nil
}

// Add registers or replaces a customer
func (d *Directory) Add(c models.Customer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.customers[c.Id] = c
}

// FailWith makes every lookup fail with err until called again with nil.
// The error is wrapped with store.ErrOracleUnavailable.
func (d *Directory) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failWith = err
}

func (d *Directory) Exists(ctx context.Context, customerId string) (bool, error) {
	if err := d.check(ctx); err != nil {
		return false, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.customers[customerId]
	return ok, nil
}

func (d *Directory) Customer(ctx context.Context, customerId string) (*models.Customer, error) {
	if err := d.check(ctx); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.customers[customerId]
	if !ok {
		return nil, fmt.Errorf("%w: id %s", store.ErrCustomerNotFound, customerId)
	}
	return &c, nil
}

func (d *Directory) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrOracleUnavailable, err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.failWith != nil {
		return fmt.Errorf("%w: %w", store.ErrOracleUnavailable, d.failWith)
	}
	return nil
}
