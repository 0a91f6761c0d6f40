// Package appio is the execution environment shared by every evaluation:
// platform I/O, the optional GPU device, and the shared font cache.
package appio

import (
	"context"
	"fmt"
	"os"

	"github.com/gogpu/gpucontext"

	"github.com/chazu/vellum/pkg/graphic"
	"github.com/chazu/vellum/pkg/memo"
)

// ApplicationIO is the platform boundary nodes use to reach resources.
type ApplicationIO interface {
	// Name identifies the platform, e.g. "local".
	Name() string
	// LoadResource fetches the bytes behind a resource URL or path.
	LoadResource(ctx context.Context, url string) ([]byte, error)
}

// LocalIO reads resources from the local file system.
type LocalIO struct{}

func (LocalIO) Name() string { return "local" }

func (LocalIO) LoadResource(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load resource: %w", err)
	}
	return data, nil
}

// Preferences are editor settings that influence evaluation.
type Preferences struct {
	UseVello        bool
	MaxRenderRegion uint32
}

// Environment is the handle nodes receive to reach platform services. It
// is replaced as a whole, never mutated while shared.
type Environment struct {
	IO          ApplicationIO
	GPU         gpucontext.DeviceProvider
	Fonts       *graphic.FontCache
	Preferences Preferences
}

// NewEnvironment returns an environment backed by the local file system
// with an empty font cache and no GPU.
func NewEnvironment() *Environment {
	return &Environment{IO: LocalIO{}, Fonts: graphic.NewFontCache()}
}

// HasGPU reports whether a device provider is attached.
func (e *Environment) HasGPU() bool { return e != nil && e.GPU != nil }

// WithFonts returns a copy of e using fonts.
func (e *Environment) WithFonts(fonts *graphic.FontCache) *Environment {
	next := *e
	next.Fonts = fonts
	return &next
}

// AsRef exposes the shared font cache slot so a node can hand out a
// reference to it without copying the environment.
func (e *Environment) AsRef() **graphic.FontCache { return &e.Fonts }

// HashInto identifies the environment by its platform, GPU presence and
// font content. Environments are compared by value for cache keys.
func (e *Environment) HashInto(h *memo.Hasher) {
	if e.IO != nil {
		h.WriteString(e.IO.Name())
	} else {
		h.WriteString("")
	}
	h.WriteBool(e.GPU != nil)
	if e.Fonts != nil {
		e.Fonts.HashInto(h)
	}
	memo.HashValue(h, e.Preferences)
}

// SurfaceFrame identifies a platform surface that a render was drawn to.
type SurfaceFrame struct {
	SurfaceID  uint64
	Resolution graphic.DVec2
	Transform  graphic.DAffine2
}

// ImageTexture is a handle to a GPU texture. It is only meaningful inside
// the process that created it and is never persisted.
type ImageTexture struct {
	ID     uint64
	Width  uint32
	Height uint32
}
