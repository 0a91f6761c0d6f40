package main

import (
	"fmt"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/chazu/vellum/pkg/graph"
)

func newQueryCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "query <document> <jsonpath>",
		Short: "Run a JSONPath query over a document",
		Example: `  vellum query drawing.yaml '$.network.nodes.*.name'
  vellum query drawing.yaml "$.network.nodes[?(@.implementation == 'math.add')].name"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := jp.ParseString(args[1])
			if err != nil {
				return fmt.Errorf("invalid JSONPath expression: %w", err)
			}
			results, err := queryDocument(expandPath(args[0]), expr)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if g.output == jsonFormat {
				fmt.Fprintln(out, oj.JSON(results, &ojg.Options{Indent: 2, Sort: true}))
				return nil
			}
			for _, r := range results {
				if s, ok := r.(string); ok {
					fmt.Fprintln(out, s)
					continue
				}
				fmt.Fprintln(out, oj.JSON(r, &ojg.Options{Sort: true}))
			}
			return nil
		},
	}
}

// queryDocument evaluates expr against the canonical JSON form of the
// document at path, so YAML and JSON documents query alike.
func queryDocument(path string, expr jp.Expr) ([]any, error) {
	doc, err := graph.LoadDocument(path)
	if err != nil {
		return nil, err
	}
	data, err := doc.EncodeJSON()
	if err != nil {
		return nil, err
	}
	tree, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse document json: %w", err)
	}
	return expr.Get(tree), nil
}
