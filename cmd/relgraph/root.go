package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Seed      string // path to the YAML catalog seed
	LogLevel  string
	Telemetry bool // emit traces and metrics to stderr
}

// NewRootCommand creates the relgraph CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "relgraph",
		Short:         "relgraph - openCypher clause-chain compiler",
		Long:          "Compiles openCypher clause chains into relational plans against a YAML-seeded graph catalog.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Seed, "seed", "", "path to the YAML catalog seed file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "off", "compiler log level (debug|info|warn|error|off)")
	cmd.PersistentFlags().BoolVar(&opts.Telemetry, "telemetry", false, "emit OpenTelemetry traces and metrics to stderr")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewLabelsCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// NewVersionCommand reports the build version.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "relgraph version %s\n", version)
			return nil
		},
	}
}
