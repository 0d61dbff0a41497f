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
	"time"

	"github.com/shopspring/decimal"
)

// Customer is the display data the customer service holds for an account owner
type Customer struct {
	Id             string `json:"customerId" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Identification string `json:"identification,omitempty" yaml:"identification"`
	Status         bool   `json:"status" yaml:"status"`
}

// StatementLine is one movement as it appears on a statement
type StatementLine struct {
	Date    time.Time       `json:"date"`
	Kind    MovementKind    `json:"type"`
	Amount  decimal.Decimal `json:"amount"`
	Balance decimal.Decimal `json:"balance"`
}

// Statement is the report for one account over a date window
type Statement struct {
	GeneratedAt    time.Time       `json:"date"`
	CustomerName   string          `json:"customerName"`
	AccountNumber  string          `json:"accountNumber"`
	AccountType    AccountType     `json:"accountType"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Status         bool            `json:"status"`
	Movements      []StatementLine `json:"transactions"`
}

// AccountView is the wire representation of an account, with its current balance
type AccountView struct {
	Id             string          `json:"accountId"`
	AccountNumber  string          `json:"accountNumber"`
	AccountType    AccountType     `json:"accountType"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Balance        decimal.Decimal `json:"balance"`
	Status         bool            `json:"status"`
	CustomerId     string          `json:"customerId"`
}

// MovementView is the wire representation of a movement
type MovementView struct {
	Id        string          `json:"movementId"`
	AccountId string          `json:"accountId"`
	Sequence  int64           `json:"sequence"`
	Date      time.Time       `json:"date"`
	Kind      MovementKind    `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
	Reference string          `json:"reference,omitempty"`
}

// NewMovementView converts a stored movement to its wire form
func NewMovementView(m Movement) MovementView {
	return MovementView{
		Id:        m.Id,
		AccountId: m.AccountId,
		Sequence:  m.Sequence,
		Date:      m.CreatedAt,
		Kind:      m.Kind,
		Amount:    m.Amount,
		Balance:   m.Balance,
		Reference: m.Reference,
	}
}
