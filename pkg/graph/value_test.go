package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/vellum/pkg/appio"
	"github.com/chazu/vellum/pkg/dynany"
	"github.com/chazu/vellum/pkg/graphic"
	"github.com/chazu/vellum/pkg/logging"
	"github.com/chazu/vellum/pkg/types"
)

// samples returns a non-default value for a selection of kinds and the
// default for the rest, so every kind is covered.
func samples(t *testing.T) []TaggedValue {
	t.Helper()
	half := 0.5
	red := graphic.Red
	rect := graphic.RectangleSubpath(graphic.DVec2{}, graphic.DVec2{X: 10, Y: 5})
	custom := map[Kind]TaggedValue{
		KindF64:           F64(1.5),
		KindU32:           U32(7),
		KindU64:           U64(1 << 40),
		KindBool:          Bool(true),
		KindString:        String("hello"),
		KindDVec2:         MustOf(graphic.DVec2{X: 1, Y: 2}),
		KindDAffine2:      MustOf(gg.Translate(3, 4)),
		KindOptionalF64:   MustOf(&half),
		KindVecF64:        VecF64([]float64{1, 2, 3}),
		KindNodePath:      NodePathValue(NodePath{NewNodeID("a"), NewNodeID("b")}),
		KindVectorData:    MustOf(graphic.NewTable(graphic.VectorFromSubpaths(rect))),
		KindImage:         MustOf(graphic.FillImage(2, 2, graphic.Blue)),
		KindColor:         MustOf(graphic.Green),
		KindOptionalColor: MustOf(&red),
		KindFill:          MustOf(graphic.SolidFill(graphic.Red)),
		KindBlendMode:     MustOf(graphic.BlendMultiply),
		KindDocumentNode: MustOf(DocumentNode{
			Name:           "n",
			Implementation: "identity",
			Inputs:         []NodeInput{FromValue(F64(2)), FromLiteral("1,2", types.Concrete[graphic.DVec2]())},
		}),
	}
	out := make([]TaggedValue, 0, len(Kinds()))
	for _, k := range Kinds() {
		if v, ok := custom[k]; ok {
			out = append(out, v)
			continue
		}
		v, err := FromType(TypeOfKind(k))
		require.NoError(t, err, "kind %s", k)
		out = append(out, v)
	}
	return out
}

func TestRegistryBijection(t *testing.T) {
	seen := map[string]Kind{}
	for _, k := range Kinds() {
		typ := k.GoType()
		if prev, dup := seen[typ.String()]; dup {
			t.Fatalf("%s and %s share payload type %s", prev, k, typ)
		}
		seen[typ.String()] = k

		v, err := FromType(TypeOfKind(k))
		require.NoError(t, err)
		assert.Equal(t, k, v.Kind())
		assert.True(t, v.Type().Equal(TypeOfKind(k)), "type of %s", k)
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	saved := registry
	defer func() {
		buildRegistry(saved[:])
	}()
	table := append([]*variant(nil), registry[:]...)
	table[KindU32] = def[float64](KindU32, "U32")
	assert.Panics(t, func() { buildRegistry(table) })
}

func TestDynRoundTripEveryKind(t *testing.T) {
	for _, v := range samples(t) {
		t.Run(v.Kind().String(), func(t *testing.T) {
			got, err := FromDyn(v.ToDyn())
			require.NoError(t, err)
			assert.Equal(t, v.Kind(), got.Kind())
			assert.Equal(t, v.Hash(), got.Hash())

			shared := v.ToShared()
			got, err = FromSharedRef(shared)
			require.NoError(t, err)
			assert.Equal(t, v.Kind(), got.Kind())
			assert.Equal(t, v.Hash(), got.Hash())
			assert.Equal(t, int64(1), shared.Refs())
		})
	}
}

func TestFromSharedRefClones(t *testing.T) {
	v := VecF64([]float64{1, 2})
	shared := v.ToShared()
	got, err := FromSharedRef(shared)
	require.NoError(t, err)

	p, err := Payload[[]float64](got)
	require.NoError(t, err)
	p[0] = 99
	assert.Equal(t, []float64{1, 2}, shared.Value())
}

func TestSharedCachesAreNotCopied(t *testing.T) {
	fonts := graphic.NewFontCache()
	got, err := FromSharedRef(MustOf(fonts).ToShared())
	require.NoError(t, err)
	p, err := Payload[*graphic.FontCache](got)
	require.NoError(t, err)
	assert.Same(t, fonts, p)
}

func TestFromDynRefClones(t *testing.T) {
	c := graphic.Red
	got, err := FromDyn(dynany.Ref(&c))
	require.NoError(t, err)
	assert.Equal(t, KindColor, got.Kind())
	c.R = 0
	p, _ := Payload[graphic.Color](got)
	assert.Equal(t, 1.0, p.R)
}

func TestFromDynUnit(t *testing.T) {
	got, err := FromDyn(dynany.Dyn{})
	require.NoError(t, err)
	assert.True(t, got.IsNone())
}

func TestFromDynForeignType(t *testing.T) {
	type foreign struct{ X int }
	_, err := FromDyn(dynany.New(foreign{}))
	var ee *ErasureError
	require.ErrorAs(t, err, &ee)
	assert.True(t, errors.Is(err, ErrNoMatchingVariant))
	assert.Contains(t, err.Error(), "no matching variant for runtime type `graph.foreign`")
}

func TestFromTypeErrors(t *testing.T) {
	_, err := FromType(types.Generic("T"))
	assert.ErrorIs(t, err, ErrUnrepresentable)

	_, err = FromType(types.Concrete[complex128]())
	assert.ErrorIs(t, err, ErrUnrepresentable)

	assert.True(t, FromTypeOrNone(types.Generic("T")).IsNone())
}

func TestFromTypeResolvesThroughWrappers(t *testing.T) {
	v, err := FromType(types.Future(types.Fn(types.Concrete[float64]())))
	require.NoError(t, err)
	assert.Equal(t, KindF64, v.Kind())
}

func TestDefaults(t *testing.T) {
	v, err := FromType(types.Concrete[graphic.DAffine2]())
	require.NoError(t, err)
	m, _ := Payload[graphic.DAffine2](v)
	assert.True(t, m.IsIdentity())

	v, err = FromType(types.Concrete[graphic.Artboard]())
	require.NoError(t, err)
	a, _ := Payload[graphic.Artboard](v)
	assert.Equal(t, "Artboard", a.Label)

	v, err = FromType(types.Concrete[*appio.Environment]())
	require.NoError(t, err)
	env, _ := Payload[*appio.Environment](v)
	require.NotNil(t, env)
	assert.False(t, env.HasGPU())
}

func TestHashProperties(t *testing.T) {
	assert.Equal(t, F64(1).Hash(), F64(1).Hash())
	assert.NotEqual(t, F64(1).Hash(), F64(2).Hash())
	assert.NotEqual(t, U32(1).Hash(), U64(1).Hash(), "kind is part of the hash")
	assert.NotEqual(t, F64(0).Hash(), F64(math.Copysign(0, -1)).Hash())

	nan1 := math.Float64frombits(0x7ff8000000000001)
	nan2 := math.Float64frombits(0x7ff8000000000002)
	assert.Equal(t, F64(nan1).Hash(), F64(nan1).Hash())
	assert.NotEqual(t, F64(nan1).Hash(), F64(nan2).Hash())

	var unset *float64
	zero := 0.0
	assert.NotEqual(t, MustOf(unset).Hash(), MustOf(&zero).Hash())

	m := F64(3).Memo()
	assert.Equal(t, F64(3).Hash(), m.Hash())
}

func TestZeroOfDifferentKindsHashesDifferently(t *testing.T) {
	assert.NotEqual(t, F64(0.0).Hash(), U64(0).Hash())
	assert.NotEqual(t, U32(0).Hash(), U64(0).Hash())
	assert.NotEqual(t, F64(0.0).Hash(), None.Hash())
}

func TestRenderOutputHashIgnoresMetadata(t *testing.T) {
	a := RenderOutput{}.Default()
	a.Data.Svg = "<svg/>"
	b := a
	b.Metadata.UpstreamNodes = []NodeID{NewNodeID("x")}
	assert.Equal(t, MustOf(a).Hash(), MustOf(b).Hash())

	b.Data.Svg = "<svg></svg>"
	assert.NotEqual(t, MustOf(a).Hash(), MustOf(b).Hash())
}

func TestPayloadMismatch(t *testing.T) {
	_, err := Payload[string](F64(1))
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Equal(t, uint32(5), U32(5).ToU32())
	assert.Panics(t, func() { F64(1).ToU32() })
}

func TestString(t *testing.T) {
	assert.Equal(t, "hello", String("hello").String())
	assert.Equal(t, "7", U32(7).String())
	assert.Equal(t, "1.5", F64(1.5).String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "Color", MustOf(graphic.Red).String())
}

func TestFromPrimitiveString(t *testing.T) {
	tests := []struct {
		text string
		typ  types.Type
		want TaggedValue
		ok   bool
	}{
		{"1.25", types.Concrete[float64](), F64(1.25), true},
		{"12", types.Concrete[uint32](), U32(12), true},
		{"-1", types.Concrete[uint32](), TaggedValue{}, false},
		{"12", types.Concrete[uint64](), U64(12), true},
		{"true", types.Concrete[bool](), Bool(true), true},
		{"false", types.Concrete[bool](), Bool(false), true},
		{"1", types.Concrete[bool](), TaggedValue{}, false},
		{"TRUE", types.Concrete[bool](), TaggedValue{}, false},
		{"t", types.Concrete[bool](), TaggedValue{}, false},
		{"raw text", types.Concrete[string](), String("raw text"), true},
		{"1,2", types.Concrete[graphic.DVec2](), MustOf(graphic.DVec2{X: 1, Y: 2}), true},
		{" 3 , 4 ", types.Concrete[graphic.DVec2](), MustOf(graphic.DVec2{X: 3, Y: 4}), true},
		{"3", types.Concrete[graphic.DVec2](), TaggedValue{}, false},
		{"1,2,3", types.Concrete[graphic.DVec2](), MustOf(graphic.DVec2{X: 1, Y: 2}), true},
		{"1,2,junk", types.Concrete[graphic.DVec2](), MustOf(graphic.DVec2{X: 1, Y: 2}), true},
		{`"#ff0000ff"`, types.Concrete[graphic.Color](), MustOf(graphic.Red), true},
		{`"00ff00"`, types.Concrete[graphic.Color](), MustOf(graphic.Green), true},
		{"Color::BLACK", types.Concrete[graphic.Color](), MustOf(graphic.Black), true},
		{"Color::MAUVE", types.Concrete[graphic.Color](), TaggedValue{}, false},
		{"ff0000", types.Concrete[graphic.Color](), TaggedValue{}, false},
		{`"#ff00"`, types.Concrete[graphic.Color](), TaggedValue{}, false},
		{`"#0000ff"`, types.Concrete[graphic.Fill](), MustOf(graphic.SolidFill(graphic.Blue)), true},
		{"ReferencePoint::TopLeft", types.Concrete[graphic.ReferencePoint](), MustOf(graphic.RefTopLeft), true},
		{"TopLeft", types.Concrete[graphic.ReferencePoint](), TaggedValue{}, false},
		{"2.5", types.Fn(types.Concrete[float64]()), F64(2.5), true},
		{"garbage", types.Concrete[float64](), TaggedValue{}, false},
		{"1", types.Generic("T"), TaggedValue{}, false},
		{"1", types.Concrete[graphic.Curve](), TaggedValue{}, false},
	}
	for _, tt := range tests {
		got, ok := FromPrimitiveString(tt.text, tt.typ)
		if ok != tt.ok {
			t.Errorf("FromPrimitiveString(%q, %s) ok = %v, want %v", tt.text, tt.typ, ok, tt.ok)
			continue
		}
		if ok && got.Hash() != tt.want.Hash() {
			t.Errorf("FromPrimitiveString(%q, %s) = %v, want %v", tt.text, tt.typ, got.Payload(), tt.want.Payload())
		}
	}
}

func TestFromPrimitiveStringLogsGarbage(t *testing.T) {
	var buf bytes.Buffer
	logging.SetLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { logging.SetLogger(nil) })

	v, ok := FromPrimitiveString("garbage", types.Concrete[float64]())
	assert.False(t, ok)
	assert.True(t, v.IsNone())

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "malformed literal", record["msg"])
	assert.Equal(t, "garbage", record["text"])
	assert.Equal(t, "F64", record["type"])
}

func TestOptionalColorLiteral(t *testing.T) {
	got, ok := FromPrimitiveString(`"#000000"`, types.Concrete[*graphic.Color]())
	require.True(t, ok)
	c, err := Payload[*graphic.Color](got)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, graphic.Black, *c)
}

func TestToPrimitiveString(t *testing.T) {
	assert.Equal(t, "()", None.ToPrimitiveString())
	assert.Equal(t, `"hi"`, String("hi").ToPrimitiveString())
	assert.Equal(t, "3_u32", U32(3).ToPrimitiveString())
	assert.Equal(t, "3_u64", U64(3).ToPrimitiveString())
	assert.Equal(t, "1.5_f64", F64(1.5).ToPrimitiveString())
	assert.Equal(t, "false", Bool(false).ToPrimitiveString())
	assert.Equal(t, "BlendMode::Multiply", MustOf(graphic.BlendMultiply).ToPrimitiveString())
	assert.Equal(t, "Color { red: 1, green: 0, blue: 0, alpha: 1 }", MustOf(graphic.Red).ToPrimitiveString())
	assert.Panics(t, func() { MustOf(graphic.Curve{}).ToPrimitiveString() })
}

func TestJSONRoundTripEveryKind(t *testing.T) {
	for _, v := range samples(t) {
		if !v.Kind().Serializable() {
			continue
		}
		t.Run(v.Kind().String(), func(t *testing.T) {
			b, err := json.Marshal(v)
			require.NoError(t, err)
			var got TaggedValue
			require.NoError(t, json.Unmarshal(b, &got), string(b))
			assert.Equal(t, v.Kind(), got.Kind())
			assert.Equal(t, v.Hash(), got.Hash(), string(b))
		})
	}
}

func TestJSONShape(t *testing.T) {
	b, err := json.Marshal(None)
	require.NoError(t, err)
	assert.JSONEq(t, `"None"`, string(b))

	b, err = json.Marshal(F64(1.5))
	require.NoError(t, err)
	assert.JSONEq(t, `{"F64":1.5}`, string(b))

	b, err = json.Marshal(MustOf(graphic.CapRound))
	require.NoError(t, err)
	assert.JSONEq(t, `{"StrokeCap":"Round"}`, string(b))
}

func TestJSONAliases(t *testing.T) {
	tests := []struct {
		in   string
		want TaggedValue
	}{
		{`{"F32":2}`, F64(2)},
		{`{"IVec2":[3,-4]}`, MustOf(graphic.DVec2{X: 3, Y: -4})},
		{`{"UVec2":{"X":1,"Y":2}}`, MustOf(graphic.DVec2{X: 1, Y: 2})},
		{`{"VecF32":[1,2]}`, VecF64([]float64{1, 2})},
		{`{"LineCap":"Square"}`, MustOf(graphic.CapSquare)},
		{`{"LineJoin":"Bevel"}`, MustOf(graphic.JoinBevel)},
	}
	for _, tt := range tests {
		var got TaggedValue
		require.NoError(t, json.Unmarshal([]byte(tt.in), &got), tt.in)
		assert.Equal(t, tt.want.Kind(), got.Kind(), tt.in)
		assert.Equal(t, tt.want.Hash(), got.Hash(), tt.in)
	}
}

func TestJSONLegacyImageFrame(t *testing.T) {
	img := graphic.FillImage(1, 1, graphic.White)
	raw, err := json.Marshal(img)
	require.NoError(t, err)

	var got TaggedValue
	require.NoError(t, json.Unmarshal([]byte(`{"ImageFrame":`+string(raw)+`}`), &got))
	assert.Equal(t, KindRasterData, got.Kind())
	table, _ := Payload[graphic.RasterDataTable](got)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, img.Data, table.Instances[0].Value.Data)
}

func TestJSONLegacyGradientPositions(t *testing.T) {
	var got TaggedValue
	in := `{"GradientPositions":[[0,null],[1,{"R":1,"G":1,"B":1,"A":1}]]}`
	require.NoError(t, json.Unmarshal([]byte(in), &got))
	stops, err := Payload[graphic.GradientStops](got)
	require.NoError(t, err)
	require.Len(t, stops, 2)
	assert.Equal(t, graphic.Black.ToGG(), stops[0].Color)
	assert.Equal(t, 1.0, stops[1].Offset)
}

func TestJSONRejects(t *testing.T) {
	var v TaggedValue
	assert.Error(t, json.Unmarshal([]byte(`{"Nope":1}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`"F64"`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"F64":1,"U32":2}`), &v))
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"EditorAPI":{}}`), &v), ErrTransient)

	_, err := json.Marshal(MustOf(appio.NewEnvironment()))
	assert.ErrorIs(t, err, ErrTransient)

	tex := RenderOutput{Data: RenderOutputData{Kind: RenderTexture, Texture: &appio.ImageTexture{ID: 1}}}
	_, err = json.Marshal(MustOf(tex))
	assert.ErrorIs(t, err, ErrTransient)
}
