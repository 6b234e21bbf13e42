package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetGatewaySession returns the persisted gateway credentials blob, or
// nil when none has been saved yet.
func (r *PostgresRepository) GetGatewaySession(ctx context.Context) (*GatewaySession, error) {
	const q = `
SELECT id, credentials, updated_at
FROM gateway_sessions
WHERE id = $1
LIMIT 1;
`
	var s GatewaySession
	err := r.pool.QueryRow(ctx, q, SessionID).Scan(&s.ID, &s.Credentials, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get gateway session: %w", err)
	}
	return &s, nil
}

// SaveGatewaySession upserts the credentials blob wholesale.
func (r *PostgresRepository) SaveGatewaySession(ctx context.Context, credentials []byte) error {
	const q = `
INSERT INTO gateway_sessions (id, credentials)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET
    credentials = EXCLUDED.credentials,
    updated_at = NOW();
`
	if _, err := r.pool.Exec(ctx, q, SessionID, credentials); err != nil {
		return fmt.Errorf("save gateway session: %w", err)
	}
	return nil
}
