package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chazu/vellum/pkg/config"
	"github.com/chazu/vellum/pkg/graph"
	"github.com/chazu/vellum/pkg/graphic"
	"github.com/chazu/vellum/pkg/types"
)

// writeDocument saves a small document: a 10x10 red square and the sum of
// an import and 2.
func writeDocument(t *testing.T, name string) string {
	t.Helper()
	b := graph.NewBuilder()
	b.Node("size", "math.vec2", graph.FromValue(graph.F64(10)), graph.FromValue(graph.F64(10)))
	b.Node("rect", "shape.rectangle", b.Ref("size"))
	square := b.Node("square", "style.fill", b.Ref("rect"), graph.FromValue(graph.MustOf(graphic.SolidFill(graphic.Red))))
	sum := b.Node("sum", "math.add", b.Import(types.Concrete[float64]()), graph.FromLiteral("2", types.Concrete[float64]()))
	b.Export(square).Export(sum)
	net, _, err := b.Build()
	if err != nil {
		t.Fatalf("build network: %v", err)
	}

	doc := graph.NewDocument("test")
	doc.Network = net
	path := filepath.Join(t.TempDir(), name)
	if err := doc.Save(path); err != nil {
		t.Fatalf("save document: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEval(t *testing.T) {
	doc := writeDocument(t, "doc.yaml")

	out, err := execute(t, "eval", doc, "--import", "1.5", "--stats")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !strings.Contains(out, "1: 3.5") {
		t.Errorf("expected sum output, got:\n%s", out)
	}
	if !strings.Contains(out, "misses=4") {
		t.Errorf("expected stats line, got:\n%s", out)
	}
}

func TestEvalJSON(t *testing.T) {
	doc := writeDocument(t, "doc.json")

	out, err := execute(t, "eval", doc, "--output", "json")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	var res struct {
		Outputs []graph.TaggedValue `json:"outputs"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(res.Outputs) != 2 {
		t.Fatalf("outputs = %d, want 2", len(res.Outputs))
	}
	if got := res.Outputs[1]; got.Kind() != graph.KindF64 || got.String() != "2" {
		t.Errorf("sum with default import = %v, want 2", got)
	}
}

func TestEvalRejectsBadImport(t *testing.T) {
	doc := writeDocument(t, "doc.yaml")
	if _, err := execute(t, "eval", doc, "--import", "abc"); err == nil {
		t.Fatal("expected error for unparsable import")
	}
	if _, err := execute(t, "eval", doc, "-i", "1", "-i", "2"); err == nil {
		t.Fatal("expected error for too many imports")
	}
}

func TestRender(t *testing.T) {
	doc := writeDocument(t, "square.yaml")
	dir := t.TempDir()

	_, err := execute(t, "render", doc, "--out", dir)
	if err == nil {
		t.Fatal("a number output cannot be rendered; expected error")
	}

	// keep only the square export
	d, err := graph.LoadDocument(doc)
	if err != nil {
		t.Fatal(err)
	}
	d.Network.Exports = d.Network.Exports[:1]
	if err := d.Save(doc); err != nil {
		t.Fatal(err)
	}

	for _, format := range []string{"svg", "png"} {
		out, err := execute(t, "render", doc, "--out", dir, "--format", format)
		if err != nil {
			t.Fatalf("render %s: %v", format, err)
		}
		path := filepath.Join(dir, "square-0."+format)
		if strings.TrimSpace(out) != path {
			t.Errorf("printed %q, want %q", out, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if format == "svg" && !bytes.Contains(data, []byte(`fill="#ff0000"`)) {
			t.Errorf("svg missing fill:\n%s", data)
		}
		if format == "png" && !bytes.HasPrefix(data, []byte("\x89PNG")) {
			t.Errorf("png has wrong signature")
		}
	}
}

func TestHashIsStable(t *testing.T) {
	doc := writeDocument(t, "doc.yaml")
	first, err := execute(t, "hash", doc)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := execute(t, "hash", doc)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first != second {
		t.Errorf("hash output differs between runs:\n%s\n%s", first, second)
	}
	if !strings.Contains(first, "square") || !strings.Contains(first, "output 1:") {
		t.Errorf("unexpected hash output:\n%s", first)
	}
}

func TestQuery(t *testing.T) {
	doc := writeDocument(t, "doc.yaml")
	out, err := execute(t, "query", doc, "$.network.nodes[?(@.implementation == 'math.add')].name")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if strings.TrimSpace(out) != "sum" {
		t.Errorf("query = %q, want sum", out)
	}

	if _, err := execute(t, "query", doc, "$[[["); err == nil {
		t.Error("expected error for malformed JSONPath")
	}
}

func TestValidate(t *testing.T) {
	doc := writeDocument(t, "doc.yaml")
	out, err := execute(t, "validate", doc)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "ok (4 nodes)") {
		t.Errorf("unexpected validate output:\n%s", out)
	}
}

func TestBuiltins(t *testing.T) {
	out, err := execute(t, "builtins", "raster.")
	if err != nil {
		t.Fatalf("builtins: %v", err)
	}
	if !strings.Contains(out, "raster.blur") || strings.Contains(out, "math.add") {
		t.Errorf("prefix filter not applied:\n%s", out)
	}
}

func TestConfigFlag(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "vellum.yaml")
	if err := os.WriteFile(cfgPath, []byte("render:\n  format: pdf\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "--config", cfgPath, "builtins"); err == nil {
		t.Fatal("expected invalid config error")
	}
	if _, err := execute(t, "--output", "xml", "builtins"); err == nil {
		t.Fatal("expected unknown output format error")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct{ in, want string }{
		{"~", home},
		{"~/docs/a.yaml", filepath.Join(home, "docs", "a.yaml")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"~user/x", "~user/x"},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// lockedBuffer lets the test read output while watch is writing it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, out *lockedBuffer, cond func(string) bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond(out.String()) {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for watch output, got:\n%s", out.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatchReevaluatesOnWrite(t *testing.T) {
	path := writeDocument(t, "doc.yaml")
	g := &globals{cfg: config.Default()}
	out := &lockedBuffer{}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- watch(ctx, g, path, 10*time.Millisecond, out) }()

	waitFor(t, out, func(s string) bool { return strings.Contains(s, "misses=") })

	doc, err := graph.LoadDocument(path)
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	if err := doc.Save(path); err != nil {
		t.Fatalf("save document: %v", err)
	}
	waitFor(t, out, func(s string) bool { return strings.Count(s, "misses=") >= 2 })

	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("watch: %v", err)
	}
	if !strings.Contains(out.String(), "hits=4") {
		t.Errorf("second pass should be served from the cache, got:\n%s", out.String())
	}
}
