package repo

import (
	"context"
	"fmt"
	"strings"

	"fincontrol/internal/apperr"
)

const userColumns = `id, email, name, phone, password_hash, role, is_active, created_at, updated_at`

// NormalizePhone reduces a phone number to its canonical lookup key:
// digits only, no "+" prefix and no WhatsApp suffix such as "@c.us".
func NormalizePhone(phone string) string {
	if at := strings.IndexByte(phone, '@'); at >= 0 {
		phone = phone[:at]
	}
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CreateUser stores a new user. Phone is normalised before persisting.
func (r *PostgresRepository) CreateUser(ctx context.Context, user User) (*User, error) {
	const q = `
INSERT INTO users (id, email, name, phone, password_hash, role, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns + `;
`
	row := r.pool.QueryRow(ctx, q,
		user.ID,
		user.Email,
		user.Name,
		NormalizePhone(user.Phone),
		user.PasswordHash,
		user.Role,
		user.Active,
	)
	var u User
	if err := scanUser(row, &u); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create user: %w", apperr.New(apperr.Conflict, "Usuário já cadastrado"))
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// GetUserByID returns a user by internal identifier.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1;`
	var u User
	if err := scanUser(r.pool.QueryRow(ctx, q, id), &u); err != nil {
		return nil, fmt.Errorf("get user by id: %w", notFound(err, "Usuário não encontrado"))
	}
	return &u, nil
}

// GetUserByEmail returns a user by email address.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1;`
	var u User
	if err := scanUser(r.pool.QueryRow(ctx, q, email), &u); err != nil {
		return nil, fmt.Errorf("get user by email: %w", notFound(err, "Usuário não encontrado"))
	}
	return &u, nil
}

// GetUserByPhone looks a user up by normalised phone number. Every
// webhook request resolves its user through this path.
func (r *PostgresRepository) GetUserByPhone(ctx context.Context, phone string) (*User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE phone = $1 LIMIT 1;`
	var u User
	if err := scanUser(r.pool.QueryRow(ctx, q, NormalizePhone(phone)), &u); err != nil {
		return nil, fmt.Errorf("get user by phone: %w", notFound(err, "Usuário não encontrado"))
	}
	return &u, nil
}

// ListUsers returns users ordered by creation time.
func (r *PostgresRepository) ListUsers(ctx context.Context, offset, limit int) ([]User, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC OFFSET $1 LIMIT $2;`
	rows, err := r.pool.Query(ctx, q, offset, limit)
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
func (r *PostgresRepository) UpdateUser(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	phone := upd.Phone
	if phone != nil {
		normalised := NormalizePhone(*phone)
		phone = &normalised
	}
	const q = `
UPDATE users
SET name = COALESCE($2, name),
    email = COALESCE($3, email),
    phone = COALESCE($4, phone),
    password_hash = COALESCE($5, password_hash),
    is_active = COALESCE($6, is_active),
    updated_at = NOW()
WHERE id = $1
RETURNING ` + userColumns + `;
`
	var u User
	if err := scanUser(r.pool.QueryRow(ctx, q, id, upd.Name, upd.Email, phone, upd.PasswordHash, upd.Active), &u); err != nil {
		return nil, fmt.Errorf("update user: %w", notFound(err, "Usuário não encontrado"))
	}
	return &u, nil
}

// DeleteUser removes a user.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "Usuário não encontrado")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, u *User) error {
	return row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt)
}
