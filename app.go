package main

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/gogpu/gg"

	"github.com/chazu/vellum/pkg/config"
	"github.com/chazu/vellum/pkg/engine"
	"github.com/chazu/vellum/pkg/graph"
	"github.com/chazu/vellum/pkg/graphic"
	"github.com/chazu/vellum/pkg/logging"
	"github.com/chazu/vellum/pkg/render"
)

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx     context.Context
	cfg     *config.Config
	runtime *engine.Runtime
}

// OutputData is one network output as the frontend displays it: SVG
// markup for graphical outputs, a PNG data URI for encoded images, and
// plain text otherwise.
type OutputData struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
	Svg  string `json:"svg,omitempty"`
	Png  string `json:"png,omitempty"`
}

// NodeErrorData is a JSON-serializable node failure for the frontend.
type NodeErrorData struct {
	Node           string `json:"node"`
	Implementation string `json:"implementation"`
	Message        string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Outputs    []OutputData    `json:"outputs"`
	Errors     []NodeErrorData `json:"errors"`
	Hits       int             `json:"hits"`
	Misses     int             `json:"misses"`
	Superseded bool            `json:"superseded"`
}

// NewApp creates an App with the default configuration.
func NewApp() *App {
	return NewAppWithConfig(config.Default())
}

// NewAppWithConfig creates an App whose runtime is set up from cfg.
func NewAppWithConfig(cfg *config.Config) *App {
	env, err := cfg.Environment()
	if err != nil {
		logging.Logger().Error("font directories not loaded", "error", err)
		env = nil
	}
	exec := engine.NewExecutor(
		engine.WithCache(engine.NewCache(cfg.Cache.Capacity)),
		engine.WithExpressionTimeout(cfg.Eval.ExpressionTimeout),
	)
	return &App{ctx: context.Background(), cfg: cfg, runtime: engine.NewRuntime(exec, env)}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// shutdown is called by Wails when the window closes.
func (a *App) shutdown(context.Context) {
	a.runtime.Close()
}

// Evaluate decodes a JSON or YAML document, evaluates it for a viewport of
// width by height pixels and returns its outputs. This is the primary
// binding called by the frontend editor. When a newer call overtakes this
// one, the result is marked superseded and carries no outputs.
func (a *App) Evaluate(document string, width, height int) EvalResult {
	result := EvalResult{Outputs: []OutputData{}, Errors: []NodeErrorData{}}
	fail := func(msg string) EvalResult {
		result.Errors = append(result.Errors, NodeErrorData{Message: msg})
		return result
	}

	doc, err := graph.DecodeDocument([]byte(document))
	if err != nil {
		return fail(err.Error())
	}
	proto, err := a.runtime.Executor().Compile(doc.Network)
	if err != nil {
		return fail(err.Error())
	}
	if width <= 0 || height <= 0 {
		width, height = int(a.cfg.Render.Width), int(a.cfg.Render.Height)
	}
	fp := graphic.Footprint{Transform: gg.Identity(), Resolution: graphic.UVec2{X: uint32(width), Y: uint32(height)}}

	ctx := a.ctx
	if t := a.cfg.Eval.Timeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	var u engine.Update
	select {
	case u = <-a.runtime.Evaluate(ctx, proto, engine.Request{Input: graph.MustOf(fp)}):
	case <-ctx.Done():
		return fail(ctx.Err().Error())
	}
	if errors.Is(u.Err, engine.ErrSuperseded) {
		result.Superseded = true
		return result
	}
	if u.Err != nil {
		return fail(u.Err.Error())
	}

	res := u.Result
	result.Hits, result.Misses = res.Stats.Hits, res.Stats.Misses
	for _, ne := range res.Errors {
		result.Errors = append(result.Errors, NodeErrorData{
			Node:           ne.Name,
			Implementation: ne.Implementation,
			Message:        ne.Err.Error(),
		})
	}
	for _, v := range res.Outputs {
		out, err := a.output(v, fp)
		if err != nil {
			return fail(err.Error())
		}
		result.Outputs = append(result.Outputs, out)
	}
	return result
}

// output converts one evaluated value for display.
func (a *App) output(v graph.TaggedValue, fp graphic.Footprint) (OutputData, error) {
	if v.IsNone() {
		return OutputData{Kind: v.Kind().String()}, nil
	}
	out, err := graph.Payload[graph.RenderOutput](v)
	if err != nil {
		group, gerr := engine.AsGroup(v)
		if gerr != nil {
			return OutputData{Kind: v.Kind().String(), Text: v.String()}, nil
		}
		if out, err = render.SVG(group, fp); err != nil {
			return OutputData{}, err
		}
	}
	switch out.Data.Kind {
	case graph.RenderSvg:
		markup, err := render.EmbedImages(out)
		if err != nil {
			return OutputData{}, err
		}
		return OutputData{Kind: "svg", Svg: markup}, nil
	case graph.RenderImage:
		return OutputData{Kind: "image", Png: "data:image/png;base64," + base64.StdEncoding.EncodeToString(out.Data.Image)}, nil
	default:
		return OutputData{Kind: out.Data.Kind.String()}, nil
	}
}

// Builtins lists the node implementations the editor can offer.
func (a *App) Builtins() []string {
	return a.runtime.Executor().Library().Names()
}

// LoadFonts adds the fonts in dir to the shared font cache. It waits for
// any evaluation in flight and invalidates cached results.
func (a *App) LoadFonts(dir string) error {
	env := a.runtime.Environment()
	fonts, err := env.Fonts.LoadFontDir(dir)
	if err != nil {
		return err
	}
	return a.runtime.ReplaceEnvironment(a.ctx, env.WithFonts(fonts))
}
