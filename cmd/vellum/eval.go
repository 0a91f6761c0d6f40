package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chazu/vellum/pkg/engine"
	"github.com/chazu/vellum/pkg/graph"
)

type evalResult struct {
	Outputs []graph.TaggedValue `json:"outputs"`
	Errors  []string            `json:"errors,omitempty"`
	Stats   engine.Stats        `json:"stats"`
}

func newEvalCmd(g *globals) *cobra.Command {
	var (
		imports   []string
		showStats bool
	)
	cmd := &cobra.Command{
		Use:   "eval <document>",
		Short: "Evaluate a document and print its outputs",
		Example: `  vellum eval drawing.yaml
  vellum eval drawing.yaml --import 2.5 --import "1,2"
  vellum eval drawing.yaml --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(g, args[0])
			if err != nil {
				return err
			}
			req, err := s.request(imports)
			if err != nil {
				return err
			}
			res, err := s.evaluate(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if g.output == jsonFormat {
				r := evalResult{Outputs: res.Outputs, Stats: res.Stats}
				for _, e := range res.Errors {
					r.Errors = append(r.Errors, e.Error())
				}
				if err := writeJSON(out, r); err != nil {
					return err
				}
			} else {
				printOutputs(out, res, showStats)
			}
			if len(res.Errors) > 0 {
				return fmt.Errorf("%d node(s) failed", len(res.Errors))
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&imports, "import", "i", nil, "Value for the next network import, as primitive text")
	cmd.Flags().BoolVar(&showStats, "stats", false, "Print cache statistics")
	return cmd
}

func printOutputs(w io.Writer, res *engine.Result, showStats bool) {
	for i, v := range res.Outputs {
		fmt.Fprintf(w, "%d: %s\n", i, v)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "error: %v\n", e)
	}
	if showStats {
		st := res.Stats
		fmt.Fprintf(w, "nodes=%d hits=%d misses=%d failed=%d skipped=%d duration=%s\n",
			st.Nodes, st.Hits, st.Misses, st.Failed, st.Skipped, st.Duration)
	}
}
