package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/vellum/pkg/graph"
)

type finding struct {
	Severity string `json:"severity"`
	Node     string `json:"node,omitempty"`
	Message  string `json:"message"`
}

func newValidateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <document>",
		Short: "Check a document for structural errors and warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := graph.LoadDocument(expandPath(args[0]))
			if err != nil {
				return err
			}
			findings := graph.Validate(doc.Network)

			out := cmd.OutOrStdout()
			if g.output == jsonFormat {
				list := make([]finding, 0, len(findings))
				for _, f := range findings {
					fd := finding{Severity: f.Severity.String(), Message: f.Message}
					if f.NodeID != 0 {
						fd.Node = f.NodeID.Short()
					}
					list = append(list, fd)
				}
				if err := writeJSON(out, list); err != nil {
					return err
				}
			} else {
				for _, f := range findings {
					fmt.Fprintln(out, f.Error())
				}
			}
			if errs := graph.Errors(findings); len(errs) > 0 {
				return fmt.Errorf("%d error(s) in %s", len(errs), args[0])
			}
			if g.output == textFormat {
				fmt.Fprintf(out, "%s: ok (%d nodes)\n", args[0], doc.Network.NodeCount())
			}
			return nil
		},
	}
}
