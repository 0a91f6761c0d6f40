package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type nodeHash struct {
	Name     string `json:"name"`
	ID       string `json:"id"`
	Identity string `json:"identity"`
	Key      string `json:"key"`
}

type hashReport struct {
	Nodes   []nodeHash `json:"nodes"`
	Outputs []string   `json:"outputs"`
}

func newHashCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "hash <document>",
		Short: "Print node identities, cache keys and output hashes",
		Long: `Hash evaluates a document once and reports, per node in execution order,
its static identity and the cache key of its result. Identical documents
and inputs always print identical hashes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(g, args[0])
			if err != nil {
				return err
			}
			req, err := s.request(nil)
			if err != nil {
				return err
			}
			res, err := s.evaluate(cmd.Context(), req)
			if err != nil {
				return err
			}

			var report hashReport
			keys := make(map[string]uint64, len(res.Trace))
			for _, ev := range res.Trace {
				keys[ev.Name] = ev.Key
			}
			for _, pn := range s.proto.Nodes {
				report.Nodes = append(report.Nodes, nodeHash{
					Name:     pn.Name,
					ID:       pn.ID.Short(),
					Identity: fmt.Sprintf("%016x", pn.Identity),
					Key:      fmt.Sprintf("%016x", keys[pn.Name]),
				})
			}
			for _, v := range res.Outputs {
				report.Outputs = append(report.Outputs, fmt.Sprintf("%016x", v.Hash()))
			}

			out := cmd.OutOrStdout()
			if g.output == jsonFormat {
				return writeJSON(out, report)
			}
			for _, n := range report.Nodes {
				fmt.Fprintf(out, "%-24s %s identity=%s key=%s\n", n.Name, n.ID, n.Identity, n.Key)
			}
			for i, h := range report.Outputs {
				fmt.Fprintf(out, "output %d: %s\n", i, h)
			}
			return nil
		},
	}
}
