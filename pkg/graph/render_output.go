package graph

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chazu/vellum/pkg/appio"
	"github.com/chazu/vellum/pkg/graphic"
	"github.com/chazu/vellum/pkg/memo"
)

// RenderKind tags the RenderOutputData union.
type RenderKind uint8

const (
	RenderCanvasFrame RenderKind = iota
	RenderTexture
	RenderSvg
	RenderImage
)

func (k RenderKind) String() string {
	switch k {
	case RenderCanvasFrame:
		return "canvas frame"
	case RenderTexture:
		return "texture"
	case RenderSvg:
		return "svg"
	case RenderImage:
		return "image"
	default:
		return fmt.Sprintf("RenderKind(%d)", uint8(k))
	}
}

// ErrTransient is returned when persisting a value that only has meaning
// inside the running process.
var ErrTransient = errors.New("value cannot be persisted")

// SvgImage is a raster image referenced from SVG markup by ID.
type SvgImage struct {
	ID    uint64
	Image graphic.Image
}

// RenderOutputData is what a render produced: a surface frame, a GPU
// texture, SVG markup with embedded rasters, or encoded image bytes.
type RenderOutputData struct {
	Kind      RenderKind
	Frame     *appio.SurfaceFrame `json:",omitempty"`
	Texture   *appio.ImageTexture `json:",omitempty"`
	Svg       string              `json:",omitempty"`
	ImageData []SvgImage          `json:",omitempty"`
	Image     []byte              `json:",omitempty"`
}

func (d RenderOutputData) MarshalJSON() ([]byte, error) {
	if d.Kind == RenderTexture {
		return nil, ErrTransient
	}
	type plain RenderOutputData
	return json.Marshal(plain(d))
}

// RenderMetadata is advisory information about a render.
type RenderMetadata struct {
	Footprint     graphic.Footprint
	ClickTargets  map[NodeID][]graphic.Subpath `json:",omitempty"`
	UpstreamNodes []NodeID                     `json:",omitempty"`
}

// RenderOutput is the terminal value of a render pass.
type RenderOutput struct {
	Data     RenderOutputData
	Metadata RenderMetadata
}

func (RenderOutput) Default() RenderOutput {
	return RenderOutput{
		Data:     RenderOutputData{Kind: RenderSvg},
		Metadata: RenderMetadata{Footprint: graphic.Footprint{}.Default()},
	}
}

// HashInto hashes only Data; metadata never affects cache identity.
func (r RenderOutput) HashInto(h *memo.Hasher) {
	memo.HashValue(h, r.Data)
}
