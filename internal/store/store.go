package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcwdsi/rt2n4j/internal/graph"
)

// Store maps tuples onto a graph backend. Safe for concurrent use; calls
// are serialized onto the single active transaction.
type Store struct {
	driver graph.Driver
	logger *slog.Logger

	mu sync.Mutex
	tx graph.Tx
}

// New wraps a driver. A nil logger uses slog.Default().
func New(driver graph.Driver, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{driver: driver, logger: logger}
}

// Begin starts a transaction, or returns the active one.
func (s *Store) Begin(ctx context.Context) (graph.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begin(ctx)
}

// begin must be called with s.mu held.
func (s *Store) begin(ctx context.Context) (graph.Tx, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.driver.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	s.tx = tx
	s.logger.Debug("transaction started")
	return tx, nil
}

// InTransaction reports whether a transaction is active.
func (s *Store) InTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx != nil
}

// Commit commits the active transaction. Without one it does nothing.
func (s *Store) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("transaction committed")
	return nil
}

// Rollback discards the active transaction. Without one it does nothing.
func (s *Store) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollback(ctx)
}

func (s *Store) rollback(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(ctx); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	s.logger.Debug("transaction rolled back")
	return nil
}

// Close rolls back any uncommitted work and closes the driver.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rbErr := s.rollback(ctx)
	if rbErr != nil {
		s.logger.Warn("rollback on close failed", "error", rbErr)
	}
	if err := s.driver.Close(ctx); err != nil {
		return errors.Join(rbErr, fmt.Errorf("close driver: %w", err))
	}
	return rbErr
}

// withTx runs fn on the active transaction, beginning one if needed.
func (s *Store) withTx(ctx context.Context, fn func(graph.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	return fn(tx)
}
