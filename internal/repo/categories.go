package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fincontrol/internal/apperr"
)

const categoryColumns = `id, user_id, name, type, icon, color, created_at, updated_at`

// EnsureCategory returns the category with the given owner, name and
// kind, creating it on first use. Categories are never auto-deleted.
func (r *PostgresRepository) EnsureCategory(ctx context.Context, userID, name, kind string) (*Category, error) {
	const find = `
SELECT ` + categoryColumns + `
FROM categories
WHERE user_id = $1 AND name = $2 AND type = $3
LIMIT 1;
`
	var c Category
	err := scanCategory(r.pool.QueryRow(ctx, find, userID, name, kind), &c)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find category: %w", err)
	}

	const insert = `
INSERT INTO categories (id, user_id, name, type)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, name, type) DO UPDATE SET updated_at = NOW()
RETURNING ` + categoryColumns + `;
`
	if err := scanCategory(r.pool.QueryRow(ctx, insert, uuid.NewString(), userID, name, kind), &c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

// CreateCategory stores a new category on explicit request. A duplicate
// name for the same owner and kind is a conflict, unlike the lazy
// EnsureCategory path.
func (r *PostgresRepository) CreateCategory(ctx context.Context, category Category) (*Category, error) {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	const q = `
INSERT INTO categories (id, user_id, name, type, icon, color)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + categoryColumns + `;
`
	var c Category
	err := scanCategory(r.pool.QueryRow(ctx, q,
		category.ID,
		category.UserID,
		category.Name,
		category.Kind,
		category.Icon,
		category.Color,
	), &c)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create category: %w", apperr.New(apperr.Conflict, "Categoria já existe"))
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

// ListCategories returns all categories of a user ordered by name.
func (r *PostgresRepository) ListCategories(ctx context.Context, userID string) ([]Category, error) {
	const q = `
SELECT ` + categoryColumns + `
FROM categories
WHERE user_id = $1
ORDER BY name ASC;
`
	rows, err := r.pool.Query(ctx, q, userID)
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

func scanCategory(row rowScanner, c *Category) error {
	return row.Scan(&c.ID, &c.UserID, &c.Name, &c.Kind, &c.Icon, &c.Color, &c.CreatedAt, &c.UpdatedAt)
}
