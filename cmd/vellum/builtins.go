package main

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/chazu/vellum/pkg/engine"
	"github.com/chazu/vellum/pkg/types"
)

type builtinInfo struct {
	Name   string   `json:"name"`
	Params []string `json:"params"`
	Output string   `json:"output"`
}

func newBuiltinsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "builtins [prefix]",
		Aliases: []string{"nodes"},
		Short:   "List the node implementations documents can use",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib := engine.DefaultLibrary()
			var infos []builtinInfo
			for _, name := range lib.Names() {
				if len(args) == 1 && !strings.HasPrefix(name, args[0]) {
					continue
				}
				b, _ := lib.Lookup(name)
				infos = append(infos, builtinInfo{
					Name:   name,
					Params: lo.Map(b.Params, func(t types.Type, _ int) string { return t.String() }),
					Output: b.Output.String(),
				})
			}

			out := cmd.OutOrStdout()
			if g.output == jsonFormat {
				return writeJSON(out, infos)
			}
			for _, info := range infos {
				fmt.Fprintf(out, "%-20s (%s) -> %s\n", info.Name, strings.Join(info.Params, ", "), info.Output)
			}
			return nil
		},
	}
}
