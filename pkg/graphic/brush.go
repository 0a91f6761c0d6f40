package graphic

import (
	"encoding/json"
	"slices"

	"github.com/jinzhu/copier"

	"github.com/chazu/vellum/pkg/memo"
)

// BrushInputSample is one recorded pointer position.
type BrushInputSample struct {
	Position DVec2
	Pressure float64
}

// BrushStyle is the dab shape and paint of a stroke.
type BrushStyle struct {
	Color     Color
	Diameter  float64
	Hardness  float64
	Flow      float64
	Spacing   float64
	BlendMode BlendMode
}

func (BrushStyle) Default() BrushStyle {
	return BrushStyle{Color: Black, Diameter: 40, Hardness: 0.5, Flow: 1, Spacing: 0.2}
}

// BrushStroke is a trace of samples painted with one style.
type BrushStroke struct {
	Trace []BrushInputSample
	Style BrushStyle
}

// BrushCache remembers the blended result of the strokes painted last time
// so appending strokes only paints the new ones. Like FontCache it is never
// mutated once shared; Update returns a new cache.
type BrushCache struct {
	prevInput []BrushStroke
	blended   Image
	hash      uint64
}

// NewBrushCache returns an empty cache.
func NewBrushCache() *BrushCache {
	return &BrushCache{hash: memo.Hash([]BrushStroke(nil))}
}

// Reuse splits strokes into a previously blended base image and the strokes
// that still need painting. When the cached input is not a prefix of
// strokes, the base is empty and every stroke must be painted.
func (c *BrushCache) Reuse(strokes []BrushStroke) (Image, []BrushStroke) {
	n := len(c.prevInput)
	if n == 0 || n > len(strokes) {
		return Image{}, strokes
	}
	if memo.Hash(strokes[:n]) != c.hash {
		return Image{}, strokes
	}
	return c.blended, strokes[n:]
}

// Update returns a cache recording that strokes blend to img.
func (c *BrushCache) Update(strokes []BrushStroke, img Image) (*BrushCache, error) {
	next := &BrushCache{}
	if err := copier.CopyWithOption(&next.prevInput, &strokes, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	next.blended = Image{Width: img.Width, Height: img.Height, Data: slices.Clone(img.Data)}
	next.hash = memo.Hash(next.prevInput)
	return next, nil
}

// Strokes returns the strokes the cached image was blended from.
func (c *BrushCache) Strokes() []BrushStroke { return c.prevInput }

// HashInto hashes the cached stroke input only.
func (c *BrushCache) HashInto(h *memo.Hasher) { h.WriteUint64(c.hash) }

type brushCacheWire struct {
	Strokes []BrushStroke `json:"strokes"`
	Blended Image         `json:"blended"`
}

func (c *BrushCache) MarshalJSON() ([]byte, error) {
	return json.Marshal(brushCacheWire{Strokes: c.prevInput, Blended: c.blended})
}

func (c *BrushCache) UnmarshalJSON(b []byte) error {
	var w brushCacheWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	c.prevInput = w.Strokes
	c.blended = w.Blended
	c.hash = memo.Hash(c.prevInput)
	return nil
}
