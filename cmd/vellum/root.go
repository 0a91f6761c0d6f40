package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/chazu/vellum/pkg/config"
	"github.com/chazu/vellum/pkg/logging"
)

const (
	textFormat = "text"
	jsonFormat = "json"
)

// globals are the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	verbose    bool
	output     string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "vellum",
		Short: "Evaluate and render node graph documents",
		Long: `Vellum compiles node graph documents, evaluates them with a memoized
executor, and renders their graphical outputs as SVG or PNG.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.load(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log at debug level")
	root.PersistentFlags().StringVar(&g.output, "output", textFormat, "Output format (text, json)")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newEvalCmd(g),
		newRenderCmd(g),
		newHashCmd(g),
		newQueryCmd(g),
		newWatchCmd(g),
		newValidateCmd(g),
		newBuiltinsCmd(g),
	)
	return root
}

// load reads the config file, applies flag overrides and installs the
// process logger on the command's error stream.
func (g *globals) load(cmd *cobra.Command) error {
	switch g.output {
	case textFormat, jsonFormat:
	default:
		return fmt.Errorf("unknown output format %q", g.output)
	}
	cfg := config.Default()
	if g.configPath != "" {
		loaded, err := config.Load(expandPath(g.configPath))
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if g.verbose {
		cfg.Log.Level = slog.LevelDebug.String()
	}
	g.cfg = cfg
	logging.SetLogger(cfg.Logger(cmd.ErrOrStderr()))
	return nil
}
