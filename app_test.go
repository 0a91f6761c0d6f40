package main

import (
	"os"
	"strings"
	"testing"

	"github.com/chazu/vellum/pkg/graph"
	"github.com/chazu/vellum/pkg/graphic"
)

// TestE2EBadgeExample exercises the full pipeline: document text → compile
// → runtime pass → SVG. This is the same path that the Wails Evaluate
// binding takes, but without the Wails runtime.
func TestE2EBadgeExample(t *testing.T) {
	app := NewApp()
	defer app.shutdown(nil)

	source, err := os.ReadFile("examples/badge.yaml")
	if err != nil {
		t.Fatalf("failed to read badge.yaml: %v", err)
	}

	result := app.Evaluate(string(source), 200, 120)
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("node %s (%s): %s", e.Node, e.Implementation, e.Message)
		}
		t.FailNow()
	}
	if len(result.Outputs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(result.Outputs))
	}

	badge := result.Outputs[0]
	if badge.Kind != "svg" {
		t.Fatalf("first output kind = %q, want svg", badge.Kind)
	}
	if !strings.Contains(badge.Svg, `fill="#2e86de"`) {
		t.Errorf("badge fill missing from svg")
	}
	if !strings.Contains(badge.Svg, `stroke="#000000"`) {
		t.Errorf("badge stroke missing from svg")
	}
	if !strings.Contains(badge.Svg, `width="200"`) {
		t.Errorf("svg should be sized to the viewport")
	}

	area := result.Outputs[1]
	if area.Kind != "F64" || !strings.HasPrefix(area.Text, "7636.") {
		t.Errorf("area = %s %q, want F64 7636.x", area.Kind, area.Text)
	}
}

func TestE2ESecondEvaluationHitsCache(t *testing.T) {
	app := NewApp()
	defer app.shutdown(nil)

	source, err := os.ReadFile("examples/badge.yaml")
	if err != nil {
		t.Fatal(err)
	}
	first := app.Evaluate(string(source), 200, 120)
	second := app.Evaluate(string(source), 200, 120)

	if first.Misses == 0 || first.Hits != 0 {
		t.Errorf("first pass hits=%d misses=%d, want only misses", first.Hits, first.Misses)
	}
	if second.Misses != 0 || second.Hits != first.Misses {
		t.Errorf("second pass hits=%d misses=%d, want %d hits", second.Hits, second.Misses, first.Misses)
	}

	// a different viewport is a different call input
	third := app.Evaluate(string(source), 100, 60)
	if third.Misses == 0 {
		t.Error("changing the viewport should recompute")
	}
}

func TestE2EEmptyNetwork(t *testing.T) {
	app := NewApp()
	defer app.shutdown(nil)

	result := app.Evaluate(`{"network": {"nodes": {}}}`, 0, 0)
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error for a network without exports, got %d", len(result.Errors))
	}
	if result.Outputs == nil {
		t.Error("Outputs should be non-nil empty slice, got nil")
	}
}

func TestE2ESchemaViolation(t *testing.T) {
	app := NewApp()
	defer app.shutdown(nil)

	result := app.Evaluate(`{"network": {"nodes": {"xyz": {"implementation": "identity"}}}}`, 0, 0)
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0].Message, "invalid document") {
		t.Fatalf("expected schema error, got %+v", result.Errors)
	}
}

func TestE2ENodeFailureIsReported(t *testing.T) {
	app := NewApp()
	defer app.shutdown(nil)

	b := graph.NewBuilder()
	b.Node("bad", "math.expression", graph.FromInline("(+ 1"))
	b.Export(b.Node("after", "math.add", b.Ref("bad"), graph.FromValue(graph.F64(1))))
	net, _, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	doc := graph.NewDocument("broken")
	doc.Network = net
	data, err := doc.EncodeJSON()
	if err != nil {
		t.Fatal(err)
	}

	result := app.Evaluate(string(data), 10, 10)
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 node errors, got %+v", result.Errors)
	}
	names := map[string]bool{}
	for _, e := range result.Errors {
		names[e.Node] = true
	}
	if !names["bad"] || !names["after"] {
		t.Errorf("errors should name both nodes, got %+v", result.Errors)
	}
	if len(result.Outputs) != 1 || result.Outputs[0].Kind != "None" {
		t.Errorf("failed export should display as None, got %+v", result.Outputs)
	}
}

func TestBuiltinsBinding(t *testing.T) {
	app := NewApp()
	defer app.shutdown(nil)

	names := app.Builtins()
	if len(names) == 0 || !contains(names, "render.svg") {
		t.Errorf("builtins missing render.svg: %v", names)
	}
}

func TestLoadFontsMissingDir(t *testing.T) {
	app := NewApp()
	defer app.shutdown(nil)

	if err := app.LoadFonts(t.TempDir() + "/missing"); err == nil {
		t.Error("expected error for missing font directory")
	}
	if err := app.LoadFonts(t.TempDir()); err != nil {
		t.Errorf("empty font directory: %v", err)
	}
}

func TestOutputOfRenderedImage(t *testing.T) {
	app := NewApp()
	defer app.shutdown(nil)

	fp := graphic.Footprint{}.Default()
	out, err := app.output(graph.String("hello"), fp)
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != "String" || out.Text != "hello" {
		t.Errorf("got %+v", out)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
