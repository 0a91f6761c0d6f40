package graphic

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gogpu/gg/text"

	"github.com/chazu/vellum/pkg/memo"
)

// Font names a font face by family and style.
type Font struct {
	Family string
	Style  string
}

const (
	DefaultFontFamily = "Go"
	DefaultFontStyle  = "Regular"
)

func (Font) Default() Font {
	return Font{Family: DefaultFontFamily, Style: DefaultFontStyle}
}

func (f Font) String() string { return f.Family + " " + f.Style }

// FontCache holds raw font files keyed by Font. A FontCache is immutable
// once shared: With and WithDefault return a new cache and leave the
// receiver untouched.
type FontCache struct {
	fonts       map[Font][]byte
	defaultFont *Font
	fingerprint uint64
}

// NewFontCache returns an empty cache.
func NewFontCache() *FontCache {
	c := &FontCache{fonts: map[Font][]byte{}}
	c.fingerprint = c.computeFingerprint()
	return c
}

// With returns a cache that additionally maps font to data. The first font
// added becomes the default.
func (c *FontCache) With(font Font, data []byte) *FontCache {
	next := &FontCache{fonts: maps.Clone(c.fonts), defaultFont: c.defaultFont}
	next.fonts[font] = slices.Clone(data)
	if next.defaultFont == nil {
		f := font
		next.defaultFont = &f
	}
	next.fingerprint = next.computeFingerprint()
	return next
}

// WithDefault returns a cache using font as the fallback face.
func (c *FontCache) WithDefault(font Font) *FontCache {
	next := &FontCache{fonts: c.fonts, defaultFont: &font}
	next.fingerprint = next.computeFingerprint()
	return next
}

// Get returns the data of exactly font.
func (c *FontCache) Get(font Font) ([]byte, bool) {
	data, ok := c.fonts[font]
	return data, ok
}

// Resolve returns the data for font, or for the default font when font is
// not loaded. The returned Font is the face actually used.
func (c *FontCache) Resolve(font Font) ([]byte, Font, bool) {
	if data, ok := c.fonts[font]; ok {
		return data, font, true
	}
	if c.defaultFont != nil {
		if data, ok := c.fonts[*c.defaultFont]; ok {
			return data, *c.defaultFont, true
		}
	}
	return nil, Font{}, false
}

// Fonts lists the loaded faces in sorted order.
func (c *FontCache) Fonts() []Font {
	fonts := slices.Collect(maps.Keys(c.fonts))
	slices.SortFunc(fonts, func(a, b Font) int {
		return strings.Compare(a.String(), b.String())
	})
	return fonts
}

func (c *FontCache) Len() int { return len(c.fonts) }

// Source parses the resolved data for font with gg's text stack.
func (c *FontCache) Source(font Font) (*text.FontSource, error) {
	data, used, ok := c.Resolve(font)
	if !ok {
		return nil, fmt.Errorf("font %q not loaded", font)
	}
	src, err := text.NewFontSource(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %q: %w", used, err)
	}
	return src, nil
}

// LoadFontDir returns a copy of c with every .ttf and .otf file in dir added
// under its embedded family name.
func (c *FontCache) LoadFontDir(dir string) (*FontCache, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read font dir: %w", err)
	}
	next := c
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".ttf" && ext != ".otf") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		src, err := text.NewFontSource(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", e.Name(), err)
		}
		name := src.Name()
		_ = src.Close()
		if name == "" {
			name = strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		}
		next = next.With(Font{Family: name, Style: DefaultFontStyle}, data)
	}
	return next, nil
}

func (c *FontCache) computeFingerprint() uint64 {
	h := memo.NewHasher()
	fonts := c.Fonts()
	h.WriteLen(len(fonts))
	for _, f := range fonts {
		h.WriteString(f.Family)
		h.WriteString(f.Style)
		h.WriteUint64(xxhash.Sum64(c.fonts[f]))
	}
	if c.defaultFont != nil {
		h.WriteUint8(1)
		h.WriteString(c.defaultFont.Family)
		h.WriteString(c.defaultFont.Style)
	} else {
		h.WriteUint8(0)
	}
	return h.Sum64()
}

// HashInto writes the content fingerprint computed when the cache was built.
func (c *FontCache) HashInto(h *memo.Hasher) { h.WriteUint64(c.fingerprint) }

type fontCacheEntry struct {
	Font Font   `json:"font"`
	Data []byte `json:"data"`
}

type fontCacheWire struct {
	Fonts   []fontCacheEntry `json:"fonts"`
	Default *Font            `json:"default,omitempty"`
}

func (c *FontCache) MarshalJSON() ([]byte, error) {
	w := fontCacheWire{Fonts: []fontCacheEntry{}, Default: c.defaultFont}
	for _, f := range c.Fonts() {
		w.Fonts = append(w.Fonts, fontCacheEntry{Font: f, Data: c.fonts[f]})
	}
	return json.Marshal(w)
}

func (c *FontCache) UnmarshalJSON(b []byte) error {
	var w fontCacheWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	c.fonts = make(map[Font][]byte, len(w.Fonts))
	for _, e := range w.Fonts {
		c.fonts[e.Font] = e.Data
	}
	c.defaultFont = w.Default
	c.fingerprint = c.computeFingerprint()
	return nil
}
