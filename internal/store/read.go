package store

import (
	"context"
	"fmt"

	"github.com/mcwdsi/rt2n4j/internal/graph"
	"github.com/mcwdsi/rt2n4j/internal/ir"
	"github.com/mcwdsi/rt2n4j/internal/mapper"
)

// Get decodes the tuple with the given identifier.
// Returns a NOT_FOUND mapper error if no node carries it.
func (s *Store) Get(ctx context.Context, rui ir.Rui) (ir.Tuple, error) {
	var out ir.Tuple
	err := s.withTx(ctx, func(tx graph.Tx) error {
		t, err := mapper.Decode(ctx, tx, rui)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetByAuthor returns the tuples that some DI tuple attributes to author.
func (s *Store) GetByAuthor(ctx context.Context, author ir.Rui) ([]ir.Tuple, error) {
	return s.lookup(ctx, func(tx graph.Tx) ([]ir.Rui, error) {
		return mapper.Authored(ctx, tx, author)
	})
}

// GetByReferent returns the tuples with any component linking to rui.
func (s *Store) GetByReferent(ctx context.Context, rui ir.Rui) ([]ir.Tuple, error) {
	return s.lookup(ctx, func(tx graph.Tx) ([]ir.Rui, error) {
		return mapper.Referencing(ctx, tx, rui)
	})
}

// GetByType returns every tuple of one variant.
func (s *Store) GetByType(ctx context.Context, tt ir.TupleType) ([]ir.Tuple, error) {
	return s.Query(ctx, mapper.Filter{Types: []ir.TupleType{tt}})
}

// Query returns the tuples matching every field set in f.
func (s *Store) Query(ctx context.Context, f mapper.Filter) ([]ir.Tuple, error) {
	return s.lookup(ctx, func(tx graph.Tx) ([]ir.Rui, error) {
		return mapper.Query(ctx, tx, f)
	})
}

// QueryRuis is Query without decoding.
func (s *Store) QueryRuis(ctx context.Context, f mapper.Filter) ([]ir.Rui, error) {
	var out []ir.Rui
	err := s.withTx(ctx, func(tx graph.Tx) error {
		ruis, err := mapper.Query(ctx, tx, f)
		out = ruis
		return err
	})
	return out, err
}

// AvailableRuis lists every identifier present in the graph, once each,
// in string order.
func (s *Store) AvailableRuis(ctx context.Context) ([]ir.Rui, error) {
	var out []ir.Rui
	err := s.withTx(ctx, func(tx graph.Tx) error {
		ruis, err := mapper.AvailableRuis(ctx, tx)
		out = ruis
		return err
	})
	return out, err
}

// lookup resolves identifiers and decodes each one in the same
// transaction.
func (s *Store) lookup(ctx context.Context, find func(graph.Tx) ([]ir.Rui, error)) ([]ir.Tuple, error) {
	var out []ir.Tuple
	err := s.withTx(ctx, func(tx graph.Tx) error {
		ruis, err := find(tx)
		if err != nil {
			return err
		}
		out = make([]ir.Tuple, 0, len(ruis))
		for _, r := range ruis {
			t, err := mapper.Decode(ctx, tx, r)
			if err != nil {
				return fmt.Errorf("decode %s: %w", r, err)
			}
			out = append(out, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
