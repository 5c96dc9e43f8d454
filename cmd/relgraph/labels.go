package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// LabelsOptions holds flags for the labels command.
type LabelsOptions struct {
	*RootOptions
	JSON bool
}

// NewLabelsCommand creates the labels command, listing the catalog contents
// of a seeded graph.
func NewLabelsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LabelsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "labels",
		Short: "List the labels of the seeded graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLabels(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "emit JSON instead of a table")

	return cmd
}

func runLabels(cmd *cobra.Command, opts *LabelsOptions) error {
	store, err := loadStore(opts.RootOptions)
	if err != nil {
		return err
	}
	labels := store.Labels()

	if opts.JSON {
		out, err := json.MarshalIndent(labels, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND\tRELATION")
	for _, l := range labels {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", l.ID, l.Name, l.Kind, l.Relation)
	}
	return w.Flush()
}
