package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/db"
)

// PostgresCredentialStore persists session credentials to PostgreSQL so several
// terminals can share them. Rows are partitioned by namespace.
type PostgresCredentialStore struct {
	pool      db.Pool
	namespace string
}

// NewPostgresCredentialStore constructs a credential store backed by PostgreSQL.
func NewPostgresCredentialStore(pool db.Pool, namespace string) *PostgresCredentialStore {
	if pool == nil {
		panic("repositories: pool must not be nil")
	}
	if namespace == "" {
		namespace = "default"
	}
	return &PostgresCredentialStore{pool: pool, namespace: namespace}
}

// Save stores or replaces the value for key.
func (s *PostgresCredentialStore) Save(ctx context.Context, key, value string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO credentials (namespace, key, value, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (namespace, key)
        DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
    `, s.namespace, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}

	return nil
}

// Find loads the value stored for key.
func (s *PostgresCredentialStore) Find(ctx context.Context, key string) (string, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT value
        FROM credentials
        WHERE namespace = $1 AND key = $2
    `, s.namespace, key)

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", auth.ErrTokenNotFound
		}
		return "", fmt.Errorf("select credential: %w", err)
	}

	return value, nil
}

// Delete removes key. Removing a missing key is not an error so that clearing an
// already cleared scope stays idempotent.
func (s *PostgresCredentialStore) Delete(ctx context.Context, key string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        DELETE FROM credentials
        WHERE namespace = $1 AND key = $2
    `, s.namespace, key); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}

	return nil
}

// Purge removes every credential of the namespace last written before cutoff and
// reports how many rows were deleted.
func (s *PostgresCredentialStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM credentials
        WHERE namespace = $1 AND updated_at < $2
    `, s.namespace, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge credentials: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrNotFound
	}

	return tag.RowsAffected(), nil
}

var _ auth.Store = (*PostgresCredentialStore)(nil)
