package store

import (
	"context"
	"fmt"

	"github.com/mcwdsi/rt2n4j/internal/graph"
	"github.com/mcwdsi/rt2n4j/internal/ir"
	"github.com/mcwdsi/rt2n4j/internal/mapper"
)

// Save encodes one tuple into the active transaction.
//
// Referenced identifiers must already exist in the transaction's view of
// the graph; otherwise a DANGLING_REFERENCE error is returned and the
// caller should roll back.
func (s *Store) Save(ctx context.Context, t ir.Tuple) error {
	return s.withTx(ctx, func(tx graph.Tx) error {
		return s.save(ctx, tx, t)
	})
}

// SaveAll saves tuples in order and stops at the first failure. Tuples
// before the failing one stay written in the transaction.
func (s *Store) SaveAll(ctx context.Context, tuples ...ir.Tuple) error {
	return s.withTx(ctx, func(tx graph.Tx) error {
		for i, t := range tuples {
			if err := s.save(ctx, tx, t); err != nil {
				return fmt.Errorf("save tuple %d: %w", i, err)
			}
		}
		return nil
	})
}

func (s *Store) save(ctx context.Context, tx graph.Tx, t ir.Tuple) error {
	if err := mapper.Encode(ctx, tx, t); err != nil {
		s.logger.Debug("save failed", "type", t.TupleType(), "rui", ir.RuiString(t.ID()), "error", err)
		return err
	}
	s.logger.Debug("saved tuple", "type", t.TupleType(), "rui", ir.RuiString(t.ID()))
	return nil
}
