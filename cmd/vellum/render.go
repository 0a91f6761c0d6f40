package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/vellum/pkg/engine"
	"github.com/chazu/vellum/pkg/graph"
	"github.com/chazu/vellum/pkg/graphic"
	"github.com/chazu/vellum/pkg/render"
)

func newRenderCmd(g *globals) *cobra.Command {
	var (
		outDir string
		format string
	)
	cmd := &cobra.Command{
		Use:   "render <document>",
		Short: "Render every output of a document to files",
		Long: `Render evaluates a document and writes one file per output. Outputs that
are already rendered keep their format; graphical outputs are rendered as
SVG or PNG.`,
		Example: `  vellum render drawing.yaml --out build
  vellum render drawing.yaml --format png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = g.cfg.Render.Format
			}
			if format != "svg" && format != "png" {
				return fmt.Errorf("unknown render format %q", format)
			}
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
			if len(res.Errors) > 0 {
				return fmt.Errorf("evaluate: %w", res.Errors[0])
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			paths := make([]string, len(res.Outputs))
			var eg errgroup.Group
			for i, v := range res.Outputs {
				eg.Go(func() error {
					data, ext, err := encodeOutput(v, format, s.footprint())
					if err != nil {
						return fmt.Errorf("output %d: %w", i, err)
					}
					paths[i] = filepath.Join(outDir, fmt.Sprintf("%s-%d.%s", base, i, ext))
					return os.WriteFile(paths[i], data, 0o644)
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory to write rendered files to")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Format for graphical outputs (svg, png); defaults to render.format")
	return cmd
}

// encodeOutput returns the file contents and extension for one output.
func encodeOutput(v graph.TaggedValue, format string, fp graphic.Footprint) ([]byte, string, error) {
	out, err := graph.Payload[graph.RenderOutput](v)
	if err != nil {
		group, gerr := engine.AsGroup(v)
		if gerr != nil {
			return nil, "", gerr
		}
		if format == "png" {
			out, err = render.PNG(group, fp)
		} else {
			out, err = render.SVG(group, fp)
		}
		if err != nil {
			return nil, "", err
		}
	}

	switch out.Data.Kind {
	case graph.RenderSvg:
		markup, err := render.EmbedImages(out)
		if err != nil {
			return nil, "", err
		}
		return []byte(markup), "svg", nil
	case graph.RenderImage:
		ext := render.Format(out.Data.Image)
		if ext == "" {
			ext = "bin"
		}
		return out.Data.Image, ext, nil
	default:
		return nil, "", fmt.Errorf("%s output cannot be written to a file", out.Data.Kind)
	}
}
