package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/gg"

	"github.com/chazu/vellum/pkg/appio"
	"github.com/chazu/vellum/pkg/engine"
	"github.com/chazu/vellum/pkg/graph"
	"github.com/chazu/vellum/pkg/graphic"
)

// session is one loaded document ready to evaluate.
type session struct {
	cfg   *globals
	env   *appio.Environment
	exec  *engine.Executor
	doc   *graph.Document
	proto *engine.ProtoNetwork
}

func newExecutor(g *globals) *engine.Executor {
	return engine.NewExecutor(
		engine.WithCache(engine.NewCache(g.cfg.Cache.Capacity)),
		engine.WithExpressionTimeout(g.cfg.Eval.ExpressionTimeout),
	)
}

// openSession loads and compiles the document at path.
func openSession(g *globals, path string) (*session, error) {
	env, err := g.cfg.Environment()
	if err != nil {
		return nil, err
	}
	s := &session{cfg: g, env: env, exec: newExecutor(g)}
	if err := s.reload(path); err != nil {
		return nil, err
	}
	return s, nil
}

// reload reads the document again and recompiles it. The executor and its
// cache are kept.
func (s *session) reload(path string) error {
	doc, err := graph.LoadDocument(expandPath(path))
	if err != nil {
		return err
	}
	proto, err := s.exec.Compile(doc.Network)
	if err != nil {
		return fmt.Errorf("compile %s: %w", path, err)
	}
	s.doc, s.proto = doc, proto
	return nil
}

// footprint is the viewport renders are requested for.
func (s *session) footprint() graphic.Footprint {
	r := s.cfg.cfg.Render
	return graphic.Footprint{Transform: gg.Identity(), Resolution: graphic.UVec2{X: r.Width, Y: r.Height}}
}

// request builds a pass request from primitive import text, parsed for the
// declared import types.
func (s *session) request(imports []string) (engine.Request, error) {
	if len(imports) > len(s.proto.Imports) {
		return engine.Request{}, fmt.Errorf("%d imports given, network declares %d", len(imports), len(s.proto.Imports))
	}
	req := engine.Request{Input: graph.MustOf(s.footprint())}
	for i, text := range imports {
		v, ok := graph.FromPrimitiveString(text, s.proto.Imports[i])
		if !ok {
			return engine.Request{}, fmt.Errorf("import %d: cannot parse %q as %s", i, text, s.proto.Imports[i])
		}
		req.Imports = append(req.Imports, v)
	}
	return req, nil
}

func (s *session) evaluate(ctx context.Context, req engine.Request) (*engine.Result, error) {
	if t := s.cfg.cfg.Eval.Timeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	return s.exec.Evaluate(ctx, s.env, s.proto, req)
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
