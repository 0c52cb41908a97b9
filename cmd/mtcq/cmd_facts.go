package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lu-w/stars-logic-mtcq/internal/scenario"
)

func newFactsCmd(opts *rootOptions) *cobra.Command {
	var (
		tick      int
		predicate string
	)
	cmd := &cobra.Command{
		Use:   "facts [segment]",
		Short: "Print the assembled facts of a segment",
		Long: `Assembles one segment and prints the facts of each instant, or of the
instant selected with --tick.

Example:
  mtcq facts scenarios/two_vehicles.yaml --tick 0 --predicate relation`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			seg, err := scenario.Load(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := opts.context(cmd)
			defer cancel()
			store, err := a.cache.GetOrAssemble(ctx, seg)
			if err != nil {
				return err
			}

			if tick >= store.Len() {
				return fmt.Errorf("tick %d out of range (segment has %d)", tick, store.Len())
			}
			for i, frame := range store.Frames() {
				if tick >= 0 && i != tick {
					continue
				}
				renderFacts(cmd.OutOrStdout(), frame.Label, frame.Snapshot, predicate)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&tick, "tick", -1, "Only print the instant with this index")
	cmd.Flags().StringVar(&predicate, "predicate", "", "Only print facts of this predicate")
	return cmd
}
