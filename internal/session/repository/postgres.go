package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const defaultNamespace = "default"

// PostgresRepository stores values in the client_kv table created by the embedded migrations.
// Rows are scoped by namespace so several console profiles can share one database.
type PostgresRepository struct {
	db        *sql.DB
	namespace string
}

// NewPostgresRepository returns a repository that uses db for persistence. An empty namespace uses "default".
func NewPostgresRepository(db *sql.DB, namespace string) *PostgresRepository {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &PostgresRepository{db: db, namespace: namespace}
}

// Get returns the value for key, or nil if no row exists.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM client_kv WHERE namespace = $1 AND key = $2`,
		r.namespace, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}

// Put upserts the row for key.
func (r *PostgresRepository) Put(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO client_kv (namespace, key, value, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		r.namespace, key, value, time.Now().UTC(),
	)
	return err
}

// Delete removes the row for key.
func (r *PostgresRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM client_kv WHERE namespace = $1 AND key = $2`,
		r.namespace, key,
	)
	return err
}
