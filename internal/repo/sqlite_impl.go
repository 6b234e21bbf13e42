package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fincontrol/internal/apperr"
)

// The SQLite implementation mirrors the Postgres queries with "?"
// placeholders and Go-side timestamps, since SQLite has no NOW().

func sqliteNotFound(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.NotFound, message)
	}
	return err
}

func isSQLiteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateUser stores a new user.
func (r *SQLiteRepository) CreateUser(ctx context.Context, user User) (*User, error) {
	now := time.Now().UTC()
	const q = `
INSERT INTO users (id, email, name, phone, password_hash, role, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
`
	_, err := r.db.ExecContext(ctx, q,
		user.ID, user.Email, user.Name, NormalizePhone(user.Phone),
		user.PasswordHash, user.Role, user.Active, now, now,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, fmt.Errorf("create user: %w", apperr.New(apperr.Conflict, "Usuário já cadastrado"))
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return r.GetUserByID(ctx, user.ID)
}

// GetUserByID returns a user by internal identifier.
func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	return r.getUser(ctx, `WHERE id = ?`, id, "Usuário não encontrado")
}

// GetUserByEmail returns a user by email address.
func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, `WHERE email = ?`, email, "Usuário não encontrado")
}

// GetUserByPhone looks a user up by normalised phone number.
func (r *SQLiteRepository) GetUserByPhone(ctx context.Context, phone string) (*User, error) {
	return r.getUser(ctx, `WHERE phone = ?`, NormalizePhone(phone), "Usuário não encontrado")
}

func (r *SQLiteRepository) getUser(ctx context.Context, where string, arg any, missing string) (*User, error) {
	q := `SELECT ` + userColumns + ` FROM users ` + where + ` LIMIT 1;`
	var u User
	if err := scanUser(r.db.QueryRowContext(ctx, q, arg), &u); err != nil {
		return nil, fmt.Errorf("get user: %w", sqliteNotFound(err, missing))
	}
	return &u, nil
}

// ListUsers returns users ordered by creation time.
func (r *SQLiteRepository) ListUsers(ctx context.Context, offset, limit int) ([]User, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC LIMIT ? OFFSET ?;`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// UpdateUser applies a partial update and returns the stored row.
func (r *SQLiteRepository) UpdateUser(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	phone := upd.Phone
	if phone != nil {
		normalised := NormalizePhone(*phone)
		phone = &normalised
	}
	const q = `
UPDATE users
SET name = COALESCE(?, name),
    email = COALESCE(?, email),
    phone = COALESCE(?, phone),
    password_hash = COALESCE(?, password_hash),
    is_active = COALESCE(?, is_active),
    updated_at = ?
WHERE id = ?;
`
	res, err := r.db.ExecContext(ctx, q, upd.Name, upd.Email, phone, upd.PasswordHash, upd.Active, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.New(apperr.NotFound, "Usuário não encontrado")
	}
	return r.GetUserByID(ctx, id)
}

// DeleteUser removes a user.
func (r *SQLiteRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "Usuário não encontrado")
	}
	return nil
}

// EnsureCategory returns the category, creating it on first use.
func (r *SQLiteRepository) EnsureCategory(ctx context.Context, userID, name, kind string) (*Category, error) {
	const find = `
SELECT ` + categoryColumns + `
FROM categories
WHERE user_id = ? AND name = ? AND type = ?
LIMIT 1;
`
	var c Category
	err := scanCategory(r.db.QueryRowContext(ctx, find, userID, name, kind), &c)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find category: %w", err)
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	const insert = `
INSERT INTO categories (id, user_id, name, type, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?);
`
	if _, err := r.db.ExecContext(ctx, insert, id, userID, name, kind, now, now); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	if err := scanCategory(r.db.QueryRowContext(ctx, find, userID, name, kind), &c); err != nil {
		return nil, fmt.Errorf("reload category: %w", err)
	}
	return &c, nil
}

// CreateCategory stores a new category, rejecting duplicates.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, category Category) (*Category, error) {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	const q = `
INSERT INTO categories (id, user_id, name, type, icon, color, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`
	_, err := r.db.ExecContext(ctx, q,
		category.ID, category.UserID, category.Name, category.Kind,
		category.Icon, category.Color, now, now,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, fmt.Errorf("create category: %w", apperr.New(apperr.Conflict, "Categoria já existe"))
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	var c Category
	const find = `SELECT ` + categoryColumns + ` FROM categories WHERE id = ? LIMIT 1;`
	if err := scanCategory(r.db.QueryRowContext(ctx, find, category.ID), &c); err != nil {
		return nil, fmt.Errorf("reload category: %w", err)
	}
	return &c, nil
}

// ListCategories returns all categories of a user ordered by name.
func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]Category, error) {
	const q = `
SELECT ` + categoryColumns + `
FROM categories
WHERE user_id = ?
ORDER BY name ASC;
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := scanCategory(rows, &c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// InsertTransaction stores a new transaction.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx Transaction) (*Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	const q = `
INSERT INTO transactions (id, user_id, category_id, amount_cents, description, category, type, date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`
	_, err := r.db.ExecContext(ctx, q,
		tx.ID, tx.UserID, tx.CategoryID, tx.AmountCents,
		tx.Description, tx.Category, tx.Kind, tx.Date, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return r.GetTransaction(ctx, tx.ID, tx.UserID)
}

// GetTransaction returns a transaction owned by userID.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id, userID string) (*Transaction, error) {
	const q = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE id = ? AND user_id = ?
LIMIT 1;
`
	var tx Transaction
	if err := scanTransaction(r.db.QueryRowContext(ctx, q, id, userID), &tx); err != nil {
		return nil, fmt.Errorf("get transaction: %w", sqliteNotFound(err, "Transação não encontrada"))
	}
	return &tx, nil
}

// ListTransactions returns a user's transactions, date descending.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	q := `
SELECT ` + transactionColumns + `
FROM transactions
WHERE user_id = ?
ORDER BY date DESC`
	args := []any{userID}
	if limit > 0 {
		q += `
LIMIT ?`
		args = append(args, limit)
	}
	q += ";"
	return r.queryTransactions(ctx, q, args...)
}

// ListTransactionsSince returns transactions dated at or after since.
func (r *SQLiteRepository) ListTransactionsSince(ctx context.Context, userID string, since time.Time) ([]Transaction, error) {
	const q = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE user_id = ? AND date >= ?
ORDER BY date DESC;
`
	return r.queryTransactions(ctx, q, userID, since)
}

// ListTransactionsBetween returns transactions within [from, to].
func (r *SQLiteRepository) ListTransactionsBetween(ctx context.Context, userID string, from, to time.Time) ([]Transaction, error) {
	const q = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE user_id = ? AND date >= ? AND date <= ?
ORDER BY date ASC;
`
	return r.queryTransactions(ctx, q, userID, from, to)
}

// ListTransactionsByCategory returns a user's transactions in the
// named category, date descending.
func (r *SQLiteRepository) ListTransactionsByCategory(ctx context.Context, userID, category string) ([]Transaction, error) {
	const q = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE user_id = ? AND category = ?
ORDER BY date DESC;
`
	return r.queryTransactions(ctx, q, userID, category)
}

// UpdateTransaction applies a partial update.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id, userID string, upd TransactionUpdate) (*Transaction, error) {
	const q = `
UPDATE transactions
SET amount_cents = COALESCE(?, amount_cents),
    description = COALESCE(?, description),
    category = COALESCE(?, category),
    updated_at = ?
WHERE id = ? AND user_id = ?;
`
	res, err := r.db.ExecContext(ctx, q, upd.AmountCents, upd.Description, upd.Category, time.Now().UTC(), id, userID)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.New(apperr.NotFound, "Transação não encontrada")
	}
	return r.GetTransaction(ctx, id, userID)
}

// DeleteTransaction removes a transaction owned by userID.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?;`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.NotFound, "Transação não encontrada")
	}
	return nil
}

// GetGatewaySession returns the persisted credentials blob, or nil.
func (r *SQLiteRepository) GetGatewaySession(ctx context.Context) (*GatewaySession, error) {
	const q = `SELECT id, credentials, updated_at FROM gateway_sessions WHERE id = ? LIMIT 1;`
	var s GatewaySession
	err := r.db.QueryRowContext(ctx, q, SessionID).Scan(&s.ID, &s.Credentials, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get gateway session: %w", err)
	}
	return &s, nil
}

// SaveGatewaySession upserts the credentials blob wholesale.
func (r *SQLiteRepository) SaveGatewaySession(ctx context.Context, credentials []byte) error {
	const q = `
INSERT INTO gateway_sessions (id, credentials, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    credentials = excluded.credentials,
    updated_at = excluded.updated_at;
`
	if _, err := r.db.ExecContext(ctx, q, SessionID, credentials, time.Now().UTC()); err != nil {
		return fmt.Errorf("save gateway session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, q string, args ...any) ([]Transaction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
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
