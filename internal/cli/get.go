package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcwdsi/rt2n4j/internal/ir"
	"github.com/mcwdsi/rt2n4j/internal/store"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <rui>",
		Short: "Print the tuple with the given identifier",
		Long: `Print the tuple with the given identifier.

Exit codes:
  0 - Tuple found
  1 - No tuple carries the identifier
  2 - Command error

Example:
  rt2n4j get 0190d3c4-7a5e-7b1c-8f00-000000000001`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rui, err := ir.ParseRui(args[0])
			if err != nil {
				return inputError("invalid identifier", err)
			}
			return withStore(cmd.Context(), rootOpts, func(ctx context.Context, st *store.Store) error {
				t, err := st.Get(ctx, rui)
				if err != nil {
					return WrapExitError(ExitFailure, fmt.Sprintf("get %s", rui), err)
				}
				return rootOpts.formatter(cmd).Tuples([]ir.Tuple{t})
			})
		},
	}
}

// lookup describes one list-returning store lookup command.
type lookup struct {
	use   string
	short string
	long  string
	run   func(ctx context.Context, st *store.Store, arg string) ([]ir.Tuple, error)
}

var lookupByAuthor = lookup{
	use:   "by-author <author-rui>",
	short: "Print the tuples registered by an author",
	long: `Print the tuples registered by an author.

A tuple is attributed to an author by a DI tuple whose ruia names the
author and whose ruit names the tuple.`,
	run: func(ctx context.Context, st *store.Store, arg string) ([]ir.Tuple, error) {
		rui, err := ir.ParseRui(arg)
		if err != nil {
			return nil, inputError("invalid identifier", err)
		}
		return st.GetByAuthor(ctx, rui)
	},
}

var lookupByReferent = lookup{
	use:   "by-referent <rui>",
	short: "Print the tuples that link to an identifier",
	long: `Print the tuples that link to an identifier through any field:
referents, repeatable referents, temporal regions, list members and so on.`,
	run: func(ctx context.Context, st *store.Store, arg string) ([]ir.Tuple, error) {
		rui, err := ir.ParseRui(arg)
		if err != nil {
			return nil, inputError("invalid identifier", err)
		}
		return st.GetByReferent(ctx, rui)
	},
}

var lookupByType = lookup{
	use:   "by-type <type>",
	short: "Print every tuple of one type",
	long: `Print every tuple of one type.

Types: AN, AR, DI, DC, F, NtoN, NtoR, NtoC, NtoDE, NtoLackR.`,
	run: func(ctx context.Context, st *store.Store, arg string) ([]ir.Tuple, error) {
		tt, err := ir.ParseTupleType(arg)
		if err != nil {
			return nil, inputError("invalid tuple type", err)
		}
		return st.GetByType(ctx, tt)
	},
}

// NewLookupCommand creates a command running one lookup.
func NewLookupCommand(rootOpts *RootOptions, l lookup) *cobra.Command {
	return &cobra.Command{
		Use:   l.use,
		Short: l.short,
		Long:  l.long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), rootOpts, func(ctx context.Context, st *store.Store) error {
				tuples, err := l.run(ctx, st, args[0])
				if err != nil {
					return asExitError(err)
				}
				return rootOpts.formatter(cmd).Tuples(tuples)
			})
		},
	}
}

// NewRuisCommand creates the ruis command.
func NewRuisCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ruis",
		Short: "List every identifier in the graph",
		Long: `List every identifier in the graph, once each, in string order.

This includes tuples, the referents they assign and calendar time values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), rootOpts, func(ctx context.Context, st *store.Store) error {
				ruis, err := st.AvailableRuis(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "list identifiers", err)
				}
				return rootOpts.formatter(cmd).Ruis(ruis)
			})
		},
	}
}

// withStore opens a store for a read-only command and rolls back its
// transaction on close.
func withStore(ctx context.Context, opts *RootOptions, fn func(context.Context, *store.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := openStore(ctx, opts)
	if err != nil {
		return err
	}
	defer st.Close(ctx)
	return fn(ctx, st)
}

// asExitError leaves ExitErrors alone and marks anything else as an
// operation failure.
func asExitError(err error) error {
	if _, ok := err.(*ExitError); ok {
		return err
	}
	return WrapExitError(ExitFailure, "lookup failed", err)
}
