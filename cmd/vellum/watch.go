package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/chazu/vellum/pkg/engine"
	"github.com/chazu/vellum/pkg/logging"
)

func newWatchCmd(g *globals) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <document>",
		Short: "Re-evaluate a document whenever it changes",
		Long: `Watch evaluates a document, then re-evaluates it each time the file is
written. The memo cache is kept between passes, so only nodes whose
inputs changed run again; the printed statistics show the hits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return watch(ctx, g, expandPath(args[0]), debounce, cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 100*time.Millisecond, "Quiet period before re-evaluating after a change")
	return cmd
}

// watch runs passes of the document at path on a runtime until ctx is
// done. The directory is watched rather than the file so editors that
// replace the file on save keep triggering passes.
func watch(ctx context.Context, g *globals, path string, debounce time.Duration, out io.Writer) error {
	s, err := openSession(g, path)
	if err != nil {
		return err
	}
	rt := engine.NewRuntime(s.exec, s.env)
	defer rt.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	// Only this loop writes to out; pass results are forwarded to it.
	updates := make(chan engine.Update)
	done := make(chan struct{})
	defer close(done)

	pass := func() {
		req, err := s.request(nil)
		if err != nil {
			fmt.Fprintln(out, "error:", err)
			return
		}
		ch := rt.Evaluate(ctx, s.proto, req)
		go func() {
			u := <-ch
			select {
			case updates <- u:
			case <-done:
			}
		}()
	}
	pass()

	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case u := <-updates:
			report(out, u)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer = time.After(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Logger().Warn("watch error", "error", err)
		case <-timer:
			timer = nil
			if err := s.reload(path); err != nil {
				fmt.Fprintln(out, "error:", err)
				continue
			}
			pass()
		}
	}
}

func report(out io.Writer, u engine.Update) {
	switch {
	case u.Err != nil:
		logging.Logger().Debug("pass not delivered", "generation", u.Generation, "error", u.Err)
	default:
		fmt.Fprintf(out, "pass %d:\n", u.Generation)
		printOutputs(out, u.Result, true)
	}
}
