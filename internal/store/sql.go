package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Schema creates the table used by SQLBackend
const Schema = `
-- client-side documents, one row per (namespace, key)
CREATE TABLE IF NOT EXISTS client_state (
    namespace  VARCHAR(128) NOT NULL,
    state_key  VARCHAR(128) NOT NULL,
    value      MEDIUMTEXT   NOT NULL,
    updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (namespace, state_key)
);
`

const (
	selectStateQuery = "SELECT value FROM client_state WHERE namespace = ? AND state_key = ?"
	upsertStateQuery = "INSERT INTO client_state (namespace, state_key, value) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)"
	deleteStateQuery = "DELETE FROM client_state WHERE namespace = ? AND state_key = ?"
)

// SQLConn is the subset of *sql.DB used by SQLBackend
type SQLConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLBackend keeps documents in the client_state MySQL table
type SQLBackend struct {
	db        SQLConn
	namespace string
}

func NewSQLBackend(db SQLConn, namespace string) *SQLBackend {
	return &SQLBackend{db: db, namespace: namespace}
}

func (s *SQLBackend) Name() string { return "mysql" }

func (s *SQLBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, selectStateQuery, s.namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	return []byte(value), nil
}

func (s *SQLBackend) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertStateQuery, s.namespace, key, string(value)); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

func (s *SQLBackend) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteStateQuery, s.namespace, key); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}
