package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/relgraph/relgraph/src/ast"
	"github.com/relgraph/relgraph/src/catalog"
	"github.com/relgraph/relgraph/src/compiler"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output  string
	NoCache bool
}

// NewCompileCommand creates the compile command. It reads a kind-tagged AST
// JSON document, compiles it against the seeded catalog and writes the
// relational plan as JSON.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [file|-]",
		Short: "Compile an AST document into a relational plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the plan to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "disable the compiled-plan cache")

	return cmd
}

func runCompile(cmd *cobra.Command, opts *CompileOptions, input string) error {
	store, err := loadStore(opts.RootOptions)
	if err != nil {
		return err
	}

	data, err := readInput(cmd, input)
	if err != nil {
		return err
	}
	clauses, err := ast.DecodeQuery(data)
	if err != nil {
		return err
	}

	if opts.Telemetry {
		shutdown, err := setupTelemetry(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("telemetry setup: %w", err)
		}
		defer shutdown(cmd.Context())
	}

	config := compiler.DefaultConfig(store.Graph().Name)
	config.Logging = compiler.NewConsoleLoggingConfig(compiler.ParseLogLevel(opts.LogLevel))
	config.Cache.Enabled = !opts.NoCache

	c := compiler.New(store, config)
	query, err := c.Compile(cmd.Context(), clauses)
	if err != nil {
		return err
	}

	plan, err := json.MarshalIndent(query, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	plan = append(plan, '\n')

	if opts.Output != "" {
		return os.WriteFile(opts.Output, plan, 0o644)
	}
	_, err = cmd.OutOrStdout().Write(plan)
	return err
}

func loadStore(opts *RootOptions) (*catalog.MemoryStore, error) {
	if opts.Seed == "" {
		return nil, fmt.Errorf("--seed is required")
	}
	return catalog.LoadSeed(opts.Seed)
}

func readInput(cmd *cobra.Command, input string) ([]byte, error) {
	if input == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(input)
}
