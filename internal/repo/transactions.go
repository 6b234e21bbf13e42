package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fincontrol/internal/apperr"
)

const transactionColumns = `id, user_id, category_id, amount_cents, description, category, type, date, created_at, updated_at`

// InsertTransaction stores a new transaction. AmountCents must already
// be signed to match the kind.
func (r *PostgresRepository) InsertTransaction(ctx context.Context, tx Transaction) (*Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	const q = `
INSERT INTO transactions (id, user_id, category_id, amount_cents, description, category, type, date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + transactionColumns + `;
`
	var inserted Transaction
	err := scanTransaction(r.pool.QueryRow(ctx, q,
		tx.ID,
		tx.UserID,
		tx.CategoryID,
		tx.AmountCents,
		tx.Description,
		tx.Category,
		tx.Kind,
		tx.Date,
	), &inserted)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return &inserted, nil
}

// GetTransaction returns a transaction owned by userID.
func (r *PostgresRepository) GetTransaction(ctx context.Context, id, userID string) (*Transaction, error) {
	const q = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE id = $1 AND user_id = $2
LIMIT 1;
`
	var tx Transaction
	if err := scanTransaction(r.pool.QueryRow(ctx, q, id, userID), &tx); err != nil {
		return nil, fmt.Errorf("get transaction: %w", notFound(err, "Transação não encontrada"))
	}
	return &tx, nil
}

// ListTransactions returns a user's transactions ordered by date
// descending. limit <= 0 means no cap.
func (r *PostgresRepository) ListTransactions(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	q := `
SELECT ` + transactionColumns + `
FROM transactions
WHERE user_id = $1
ORDER BY date DESC`
	args := []any{userID}
	if limit > 0 {
		q += `
LIMIT $2`
		args = append(args, limit)
	}
	q += ";"
	return r.queryTransactions(ctx, q, args...)
}

// ListTransactionsSince returns transactions dated at or after since,
// date descending.
func (r *PostgresRepository) ListTransactionsSince(ctx context.Context, userID string, since time.Time) ([]Transaction, error) {
	const q = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE user_id = $1 AND date >= $2
ORDER BY date DESC;
`
	return r.queryTransactions(ctx, q, userID, since)
}

// ListTransactionsBetween returns transactions within [from, to],
// date ascending for range reports.
func (r *PostgresRepository) ListTransactionsBetween(ctx context.Context, userID string, from, to time.Time) ([]Transaction, error) {
	const q = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE user_id = $1 AND date >= $2 AND date <= $3
ORDER BY date ASC;
`
	return r.queryTransactions(ctx, q, userID, from, to)
}

// ListTransactionsByCategory returns all of a user's transactions in
// the named category, date descending.
func (r *PostgresRepository) ListTransactionsByCategory(ctx context.Context, userID, category string) ([]Transaction, error) {
	const q = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE user_id = $1 AND category = $2
ORDER BY date DESC;
`
	return r.queryTransactions(ctx, q, userID, category)
}

// UpdateTransaction applies a partial update to a transaction owned by
// userID and returns the stored row.
func (r *PostgresRepository) UpdateTransaction(ctx context.Context, id, userID string, upd TransactionUpdate) (*Transaction, error) {
	const q = `
UPDATE transactions
SET amount_cents = COALESCE($3, amount_cents),
    description = COALESCE($4, description),
    category = COALESCE($5, category),
    updated_at = NOW()
WHERE id = $1 AND user_id = $2
RETURNING ` + transactionColumns + `;
`
	var tx Transaction
	if err := scanTransaction(r.pool.QueryRow(ctx, q, id, userID, upd.AmountCents, upd.Description, upd.Category), &tx); err != nil {
		return nil, fmt.Errorf("update transaction: %w", notFound(err, "Transação não encontrada"))
	}
	return &tx, nil
}

// DeleteTransaction removes a transaction owned by userID.
func (r *PostgresRepository) DeleteTransaction(ctx context.Context, id, userID string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2;`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "Transação não encontrada")
	}
	return nil
}

func (r *PostgresRepository) queryTransactions(ctx context.Context, q string, args ...any) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var tx Transaction
		if err := scanTransaction(rows, &tx); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

func scanTransaction(row rowScanner, tx *Transaction) error {
	return row.Scan(&tx.ID, &tx.UserID, &tx.CategoryID, &tx.AmountCents, &tx.Description, &tx.Category, &tx.Kind, &tx.Date, &tx.CreatedAt, &tx.UpdatedAt)
}
