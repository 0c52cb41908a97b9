package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lu-w/stars-logic-mtcq/internal/logging"
	"github.com/lu-w/stars-logic-mtcq/internal/scenario"
)

// errNotHolding is returned by eval --require when a segment fails the query.
var errNotHolding = errors.New("query does not hold on every instant")

type queryFlags struct {
	text string
	file string
}

func (q *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&q.text, "query", "q", "", "Query source (rules and a final ?goal line)")
	cmd.Flags().StringVarP(&q.file, "query-file", "f", "", "Read the query from a file")
}

func (q *queryFlags) source() (string, error) {
	switch {
	case q.text != "" && q.file != "":
		return "", fmt.Errorf("--query and --query-file are mutually exclusive")
	case q.text != "":
		return q.text, nil
	case q.file != "":
		data, err := os.ReadFile(q.file)
		if err != nil {
			return "", fmt.Errorf("failed to read query file: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("a query is required (--query or --query-file)")
	}
}

func newEvalCmd(opts *rootOptions) *cobra.Command {
	var (
		q       queryFlags
		require bool
	)
	cmd := &cobra.Command{
		Use:   "eval [segment-glob...]",
		Short: "Evaluate a query over scenario segments",
		Long: `Loads every segment matching the patterns (doublestar syntax, e.g.
runs/**/*.yaml), assembles its temporal knowledge base and prints per-instant
answers.

Example:
  mtcq eval -q '?instance_of(X, "http://dlr.de/stars/mtcqTestOntology#MovableObject")' scenarios/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := q.source()
			if err != nil {
				return err
			}
			files, err := expandSegments(args)
			if err != nil {
				return err
			}
			a, err := opts.newApp()
			if err != nil {
				return err
			}

			ctx, cancel := opts.context(cmd)
			defer cancel()

			var failing []string
			for _, path := range files {
				seg, err := scenario.Load(path)
				if err != nil {
					return err
				}
				res, err := a.evaluator.EvaluateSegment(ctx, seg, src)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				renderResult(cmd.OutOrStdout(), seg.ID, res)
				if !res.Always() {
					failing = append(failing, seg.ID)
				}
			}

			logging.Get(logging.CategoryQuery).Info("evaluation finished",
				zap.Int("segments", len(files)),
				zap.Int("not_holding", len(failing)))
			if require && len(failing) > 0 {
				return fmt.Errorf("%w: %s", errNotHolding, strings.Join(failing, ", "))
			}
			return nil
		},
	}
	q.register(cmd)
	cmd.Flags().BoolVar(&require, "require", false, "Fail unless the query holds on every instant of every segment")
	return cmd
}
