/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account
type AccountType string

const (
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeChecking AccountType = "CHECKING"
)

// MovementKind is the direction of a movement
type MovementKind string

const (
	MovementDebit  MovementKind = "DEBIT"
	MovementCredit MovementKind = "CREDIT"
)

// MaxAccountNumberLength bounds the account number accepted on creation and update.
const MaxAccountNumberLength = 20

// Labels used by the customer-facing channels, accepted as aliases on input.
var (
	accountTypeAliases = map[string]AccountType{
		"SAVINGS":   AccountTypeSavings,
		"AHORRO":    AccountTypeSavings,
		"CHECKING":  AccountTypeChecking,
		"CORRIENTE": AccountTypeChecking,
	}
	movementKindAliases = map[string]MovementKind{
		"DEBIT":   MovementDebit,
		"DÉBITO":  MovementDebit,
		"DEBITO":  MovementDebit,
		"CREDIT":  MovementCredit,
		"CRÉDITO": MovementCredit,
		"CREDITO": MovementCredit,
	}
)

// ParseAccountType normalizes an account type label. The second return is
// false when the label is not a known type.
func ParseAccountType(raw string) (AccountType, bool) {
	t, ok := accountTypeAliases[strings.ToUpper(strings.TrimSpace(raw))]
	return t, ok
}

// ParseMovementKind normalizes a movement kind label.
func ParseMovementKind(raw string) (MovementKind, bool) {
	k, ok := movementKindAliases[strings.ToUpper(strings.TrimSpace(raw))]
	return k, ok
}

// Apply returns the balance that results from applying a movement of this
// kind and amount to balance.
func (k MovementKind) Apply(balance, amount decimal.Decimal) decimal.Decimal {
	if k == MovementDebit {
		return balance.Sub(amount)
	}
	return balance.Add(amount)
}

// Account is a customer account. Its balance is never stored; it is the
// resulting balance of the latest movement, or InitialBalance when the
// ledger is empty.
type Account struct {
	Id             string          `db:"id"`
	AccountNumber  string          `db:"account_number"`
	AccountType    AccountType     `db:"account_type"`
	InitialBalance decimal.Decimal `db:"initial_balance"`
	Status         bool            `db:"status"`
	CustomerId     string          `db:"customer_id"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// NewAccount validates the fields of a new account and returns it with
// Status set to active. Id and timestamps are assigned by the store.
func NewAccount(accountNumber string, accountType AccountType, initialBalance decimal.Decimal, customerId string) (Account, error) {
	accountNumber = strings.TrimSpace(accountNumber)
	if err := ValidateAccountNumber(accountNumber); err != nil {
		return Account{}, err
	}
	if accountType != AccountTypeSavings && accountType != AccountTypeChecking {
		return Account{}, fmt.Errorf("invalid account type %q", accountType)
	}
	if initialBalance.IsNegative() {
		return Account{}, fmt.Errorf("initial balance must not be negative, got %s", initialBalance.String())
	}
	if strings.TrimSpace(customerId) == "" {
		return Account{}, fmt.Errorf("customer id is required")
	}

	return Account{
		AccountNumber:  accountNumber,
		AccountType:    accountType,
		InitialBalance: initialBalance,
		Status:         true,
		CustomerId:     strings.TrimSpace(customerId),
	}, nil
}

// ValidateAccountNumber checks presence and length of an account number
func ValidateAccountNumber(accountNumber string) error {
	if accountNumber == "" {
		return fmt.Errorf("account number is required")
	}
	if len(accountNumber) > MaxAccountNumberLength {
		return fmt.Errorf("account number must not exceed %d characters", MaxAccountNumberLength)
	}
	return nil
}

// Movement is a single debit or credit posted to an account ledger.
// Balance is the resulting balance computed when the movement was created
// and is never recomputed.
type Movement struct {
	Id        string          `db:"id"`
	AccountId string          `db:"account_id"`
	Sequence  int64           `db:"sequence"`
	Kind      MovementKind    `db:"kind"`
	Amount    decimal.Decimal `db:"amount"`
	Balance   decimal.Decimal `db:"balance"`
	Reference string          `db:"reference"`
	CreatedAt time.Time       `db:"created_at"`
}

// NewMovement builds the movement that follows previous (nil for the first
// movement of a ledger) on an account whose balance before this movement is
// priorBalance. It does not enforce sufficient funds; callers decide.
func NewMovement(accountId string, kind MovementKind, amount decimal.Decimal, priorBalance decimal.Decimal, previous *Movement, now time.Time) (Movement, error) {
	if kind != MovementDebit && kind != MovementCredit {
		return Movement{}, fmt.Errorf("invalid movement kind %q", kind)
	}
	if !amount.IsPositive() {
		return Movement{}, fmt.Errorf("amount must be greater than 0, got %s", amount.String())
	}

	sequence := int64(1)
	createdAt := now.UTC()
	if previous != nil {
		sequence = previous.Sequence + 1
		// Keep time order consistent with sequence order when the clock steps back.
		if createdAt.Before(previous.CreatedAt) {
			createdAt = previous.CreatedAt
		}
	}

	return Movement{
		AccountId: accountId,
		Sequence:  sequence,
		Kind:      kind,
		Amount:    amount,
		Balance:   kind.Apply(priorBalance, amount),
		CreatedAt: createdAt,
	}, nil
}
