package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcwdsi/rt2n4j/internal/ir"
	"github.com/mcwdsi/rt2n4j/internal/mapper"
	"github.com/mcwdsi/rt2n4j/internal/tuplefile"
)

// ExplainedStatement is the JSON form of one compiled statement.
type ExplainedStatement struct {
	Rui    string         `json:"rui,omitempty"`
	Cypher string         `json:"cypher"`
	Params map[string]any `json:"params"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <tuples.yaml>",
		Short: "Print the Cypher that saving each tuple would run",
		Long: `Print the Cypher statement and parameters that saving each tuple would
run. No backend is opened.

Example:
  rt2n4j explain patients.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tuples, err := tuplefile.Load(args[0])
			if err != nil {
				return inputError(fmt.Sprintf("cannot load %s", args[0]), err)
			}

			out := rootOpts.formatter(cmd)
			if rootOpts.Format == "json" {
				stmts := make([]ExplainedStatement, 0, len(tuples))
				for _, t := range tuples {
					cypher, params, err := mapper.Explain(t)
					if err != nil {
						return WrapExitError(ExitFailure, fmt.Sprintf("explain %s", ir.RuiString(t.ID())), err)
					}
					stmts = append(stmts, ExplainedStatement{Rui: ir.RuiString(t.ID()), Cypher: cypher, Params: params})
				}
				return out.Success(stmts)
			}

			for _, t := range tuples {
				cypher, params, err := mapper.Explain(t)
				if err != nil {
					return WrapExitError(ExitFailure, fmt.Sprintf("explain %s", ir.RuiString(t.ID())), err)
				}
				header := fmt.Sprintf("// %s %s", t.TupleType(), ir.RuiString(t.ID()))
				if err := printStatement(out, header, cypher, params); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// printStatement writes a compiled statement followed by its parameters.
func printStatement(out *OutputFormatter, header, cypher string, params map[string]any) error {
	if out.Format == "json" {
		return out.Success(ExplainedStatement{Cypher: cypher, Params: params})
	}
	if header != "" {
		fmt.Fprintln(out.Writer, header)
	}
	fmt.Fprintln(out.Writer, cypher)
	p, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(out.Writer, "// params: %s\n\n", p)
	return nil
}
