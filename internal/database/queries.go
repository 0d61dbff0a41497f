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

package database

const (
	accountColumns = `id, account_number, account_type, initial_balance, status, customer_id, created_at, updated_at`

	// Account queries
	queryInsertAccount = `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetAccountById = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = ?`

	queryGetAccountByNumber = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_number = ?`

	queryGetAccountsByCustomer = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE customer_id = ?
		ORDER BY account_number`

	queryGetAllAccounts = `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY created_at, account_number`

	queryUpdateAccount = `
		UPDATE accounts
		SET account_number = ?, account_type = ?, initial_balance = ?, status = ?, updated_at = ?
		WHERE id = ?`

	queryDeleteAccount = `
		DELETE FROM accounts
		WHERE id = ? AND NOT EXISTS (SELECT 1 FROM movements WHERE account_id = ?)`

	movementColumns = `id, account_id, sequence, kind, amount, balance, reference, created_at`

	// Movement queries
	queryGetLastSequence = `
		SELECT COALESCE(MAX(sequence), 0)
		FROM movements
		WHERE account_id = ?`

	queryInsertMovement = `
		INSERT INTO movements (` + movementColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetLatestMovement = `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE account_id = ?
		ORDER BY sequence DESC
		LIMIT 1`

	queryGetMovementById = `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE id = ?`

	queryGetMovementsByAccount = `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE account_id = ?
		ORDER BY created_at, sequence`

	queryGetMovementsByAccountBetween = `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE account_id = ? AND created_at >= ? AND created_at <= ?
		ORDER BY created_at, sequence`

	queryGetAllMovements = `
		SELECT ` + movementColumns + `
		FROM movements
		ORDER BY account_id, sequence`

	queryCountMovements = `
		SELECT COUNT(*)
		FROM movements
		WHERE account_id = ?`

	queryUpdateMovementReference = `
		UPDATE movements
		SET reference = ?
		WHERE id = ?`

	queryDeleteLatestMovement = `
		DELETE FROM movements
		WHERE id = ? AND sequence = (SELECT MAX(sequence) FROM movements WHERE account_id = ?)`
)
