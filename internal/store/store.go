// Package store persists the client-side documents (session profile and cart)
// in a durable key-value backend.
//
// Reads are soft: a missing or undecodable value loads as the zero value and
// is logged, never returned to callers as an error.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TushxrTxndon/CampusBazaar/internal/metrics"
)

// Well-known document keys
const (
	KeyUser = "campusbazaar_user"
	KeyCart = "campusbazaar_cart"
)

// ErrNotFound is returned by backends when a key holds no value
var ErrNotFound = errors.New("state key not found")

// Backend is a namespaced byte store
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Name() string
}

// Document is a typed view of one key in a Backend
type Document[T any] struct {
	backend Backend
	key     string
	logger  *slog.Logger
}

// NewDocument binds key to backend
func NewDocument[T any](backend Backend, key string, logger *slog.Logger) *Document[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Document[T]{
		backend: backend,
		key:     key,
		logger:  logger.With("component", "store", "key", key, "backend", backend.Name()),
	}
}

// Key returns the document key
func (d *Document[T]) Key() string { return d.key }

// Load returns the stored value and whether one was present and decodable
func (d *Document[T]) Load(ctx context.Context) (T, bool) {
	var value T
	raw, err := d.backend.Get(ctx, d.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			d.logger.Warn("failed to read state, using empty default", "error", err)
		}
		return value, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		d.logger.Warn("corrupt state, using empty default", "error", err)
		var zero T
		return zero, false
	}
	return value, true
}

// Save serializes value and writes it under the document key
func (d *Document[T]) Save(ctx context.Context, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", d.key, err)
	}
	if err := d.backend.Set(ctx, d.key, raw); err != nil {
		return fmt.Errorf("failed to persist %s: %w", d.key, err)
	}
	return nil
}

// Clear removes the persisted value
func (d *Document[T]) Clear(ctx context.Context) error {
	if err := d.backend.Delete(ctx, d.key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to clear %s: %w", d.key, err)
	}
	return nil
}

// instrumented records an operation metric for every backend call
type instrumented struct {
	Backend
	metrics *metrics.AppMetrics
}

// WithMetrics wraps backend so each call is counted and timed
func WithMetrics(backend Backend, m *metrics.AppMetrics) Backend {
	if m == nil {
		return backend
	}
	return &instrumented{Backend: backend, metrics: m}
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	raw, err := i.Backend.Get(ctx, key)
	i.metrics.RecordStoreOp(ctx, i.Backend.Name(), "get", key, start, err == nil || errors.Is(err, ErrNotFound))
	return raw, err
}

func (i *instrumented) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := i.Backend.Set(ctx, key, value)
	i.metrics.RecordStoreOp(ctx, i.Backend.Name(), "set", key, start, err == nil)
	return err
}

func (i *instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.Backend.Delete(ctx, key)
	i.metrics.RecordStoreOp(ctx, i.Backend.Name(), "delete", key, start, err == nil || errors.Is(err, ErrNotFound))
	return err
}
