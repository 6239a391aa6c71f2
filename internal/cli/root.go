package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// ConfigPath names the CUE config file. Empty means rt2n4j.cue if it
	// exists, defaults otherwise.
	ConfigPath string

	// Backend, SQLitePath and Neo4jURI override the config file when set.
	Backend    string
	SQLitePath string
	Neo4jURI   string

	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Logger returns the logger installed by the root command.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}

// formatter returns an output formatter writing to the command's stdout.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout(), Verbose: o.Verbose}
}

// NewRootCommand creates the root command for the rt2n4j CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

// Execute runs the CLI with args and returns the process exit code.
// Failures are reported on stderr, or as a JSON error response on stdout
// with --format json.
func Execute(args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.printed {
		return exitErr.Code
	}

	f := &OutputFormatter{Format: opts.Format, Writer: stderr, Verbose: opts.Verbose}
	if opts.Format == "json" {
		f.Writer = stdout
	}
	f.Error(ErrorCode(err), err.Error(), nil)
	return GetExitCode(err)
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rt2n4j",
		Short: "Referent-tracking tuple store on a property graph",
		Long: `Save and retrieve referent-tracking tuples in Neo4j or in an embedded
SQLite graph.

Tuples are read from and written as YAML documents. Settings come from
rt2n4j.cue (see --config) and may be overridden with flags.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.Format, opts.Verbose)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "CUE config file (default rt2n4j.cue)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "graph backend (neo4j|sqlite), overrides config")
	cmd.PersistentFlags().StringVar(&opts.SQLitePath, "db", "", "SQLite graph file, overrides config")
	cmd.PersistentFlags().StringVar(&opts.Neo4jURI, "uri", "", "Neo4j Bolt URI, overrides config")

	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewLookupCommand(opts, lookupByAuthor))
	cmd.AddCommand(NewLookupCommand(opts, lookupByReferent))
	cmd.AddCommand(NewLookupCommand(opts, lookupByType))
	cmd.AddCommand(NewRuisCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}
