package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcwdsi/rt2n4j/internal/ir"
	"github.com/mcwdsi/rt2n4j/internal/tuplefile"
)

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	*RootOptions
	DryRun bool // roll back instead of committing
}

// SaveResult is the JSON payload of the save command.
type SaveResult struct {
	Saved     int      `json:"saved"`
	Ruis      []string `json:"ruis"`
	Committed bool     `json:"committed"`
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <tuples.yaml>...",
		Short: "Save tuples from YAML files in one transaction",
		Long: `Save tuples from YAML files in one transaction.

Tuples are saved in file order. Every identifier a tuple references must
be introduced by an earlier tuple or already be in the graph. If any save
fails the whole transaction is rolled back.

Examples:
  rt2n4j save patients.yaml
  rt2n4j save --dry-run annotations.yaml
  rt2n4j save --backend neo4j --uri bolt://db:7687 tuples.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "validate by saving, then roll back")

	return cmd
}

func runSave(ctx context.Context, opts *SaveOptions, paths []string, cmd *cobra.Command) error {
	var tuples []ir.Tuple
	for _, path := range paths {
		ts, err := tuplefile.Load(path)
		if err != nil {
			return inputError(fmt.Sprintf("cannot load %s", path), err)
		}
		tuples = append(tuples, ts...)
	}

	st, err := openStore(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	if err := st.SaveAll(ctx, tuples...); err != nil {
		if rbErr := st.Rollback(ctx); rbErr != nil {
			opts.Logger().Warn("rollback failed", "error", rbErr)
		}
		return WrapExitError(ExitFailure, "save failed, transaction rolled back", err)
	}

	if opts.DryRun {
		if err := st.Rollback(ctx); err != nil {
			return WrapExitError(ExitFailure, "rollback failed", err)
		}
	} else if err := st.Commit(ctx); err != nil {
		return WrapExitError(ExitFailure, "commit failed", err)
	}

	result := SaveResult{Saved: len(tuples), Ruis: make([]string, 0, len(tuples)), Committed: !opts.DryRun}
	for _, t := range tuples {
		result.Ruis = append(result.Ruis, ir.RuiString(t.ID()))
	}

	f := opts.formatter(cmd)
	if opts.Format == "json" {
		return f.Success(result)
	}
	verb := "Saved"
	if opts.DryRun {
		verb = "Validated (rolled back)"
	}
	return f.Success(fmt.Sprintf("%s %d tuple(s)", verb, result.Saved))
}
