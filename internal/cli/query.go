package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcwdsi/rt2n4j/internal/mapper"
	"github.com/mcwdsi/rt2n4j/internal/querycypher"
	"github.com/mcwdsi/rt2n4j/internal/store"
	"github.com/mcwdsi/rt2n4j/internal/tuplefile"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Where   string // inline YAML filter
	IDsOnly bool   // print identifiers instead of tuples
	Explain bool   // print the compiled filter instead of running it
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query [filter.yaml]",
		Short: "Find tuples matching a field filter",
		Long: `Find tuples matching a field filter.

A filter is a YAML mapping of tuple fields to required values, plus an
optional "types" list restricting the variants searched. Every field set
must match. An empty filter matches every tuple.

Examples:
  rt2n4j query filter.yaml
  rt2n4j query --where '{types: [AN, AR], ruin: 0190d3c4-7a5e-7b1c-8f00-000000000002}'
  rt2n4j query --where '{polarity: false}' --ids-only
  rt2n4j query --where '{types: [DI]}' --explain`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := readFilter(opts, args)
			if err != nil {
				return err
			}
			if opts.Explain {
				return explainFilter(opts, f, cmd)
			}
			return withStore(cmd.Context(), rootOpts, func(ctx context.Context, st *store.Store) error {
				return runQuery(ctx, opts, st, f, cmd)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Where, "where", "w", "", "inline YAML filter")
	cmd.Flags().BoolVar(&opts.IDsOnly, "ids-only", false, "print matching identifiers only")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "print the Cypher for the filter without running it")

	return cmd
}

func readFilter(opts *QueryOptions, args []string) (mapper.Filter, error) {
	var data []byte
	switch {
	case len(args) == 1 && opts.Where != "":
		return mapper.Filter{}, NewExitError(ExitCommandError, "give a filter file or --where, not both")
	case len(args) == 1:
		b, err := os.ReadFile(args[0])
		if err != nil {
			return mapper.Filter{}, inputError("cannot read filter", err)
		}
		data = b
	default:
		data = []byte(opts.Where)
	}

	f, err := tuplefile.DecodeFilter(data)
	if err != nil {
		return mapper.Filter{}, inputError("invalid filter", err)
	}
	return f, nil
}

func runQuery(ctx context.Context, opts *QueryOptions, st *store.Store, f mapper.Filter, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	if opts.IDsOnly {
		ruis, err := st.QueryRuis(ctx, f)
		if err != nil {
			return WrapExitError(ExitFailure, "query failed", err)
		}
		return out.Ruis(ruis)
	}

	tuples, err := st.Query(ctx, f)
	if err != nil {
		return WrapExitError(ExitFailure, "query failed", err)
	}
	return out.Tuples(tuples)
}

func explainFilter(opts *QueryOptions, f mapper.Filter, cmd *cobra.Command) error {
	stmt, err := mapper.BuildFilter(f)
	if err != nil {
		return inputError("invalid filter", err)
	}
	cypher, params, err := querycypher.Compile(stmt)
	if err != nil {
		return WrapExitError(ExitFailure, "compile filter", err)
	}
	return printStatement(opts.formatter(cmd), "", cypher, params)
}
