package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/vellum/pkg/logging"
)

var (
	// ErrSurfaceLost means the surface must be reconfigured; the frame is
	// retried on the next redraw.
	ErrSurfaceLost = errors.New("surface lost")
	// ErrSurfaceOutdated means the surface no longer matches the window;
	// the frame is retried on the next redraw.
	ErrSurfaceOutdated = errors.New("surface outdated")
	// ErrOutOfMemory is fatal: the presentation loop stops.
	ErrOutOfMemory = errors.New("surface out of memory")
)

// Surface is a platform target a frame buffer can be presented to.
type Surface interface {
	Present(ctx context.Context, fb *FrameBuffer) error
}

// Presenter hands the most recent frame to a surface on each redraw.
// Frames may be submitted from any goroutine; redraws happen on the
// caller of Redraw or Run.
type Presenter struct {
	surface Surface

	mu      sync.Mutex
	pending *FrameBuffer
	shown   *FrameBuffer
}

func NewPresenter(s Surface) *Presenter {
	return &Presenter{surface: s}
}

// Submit replaces the frame shown by the next redraw. Older frames that
// were never presented are dropped.
func (p *Presenter) Submit(fb *FrameBuffer) {
	p.mu.Lock()
	p.pending = fb
	p.mu.Unlock()
}

// Redraw presents the latest frame. Lost and outdated surfaces are logged
// and keep the frame queued. Out of memory is returned as a fatal error;
// any other surface error is logged and the frame dropped.
func (p *Presenter) Redraw(ctx context.Context) error {
	p.mu.Lock()
	fb := p.pending
	if fb == nil {
		fb = p.shown
	}
	p.mu.Unlock()

	if fb == nil {
		logging.Logger().Debug("no frame available, nothing to present")
		return nil
	}

	err := p.surface.Present(ctx, fb)
	switch {
	case err == nil:
		p.mu.Lock()
		if p.pending == fb {
			p.pending = nil
		}
		p.shown = fb
		p.mu.Unlock()
		return nil
	case errors.Is(err, ErrSurfaceLost), errors.Is(err, ErrSurfaceOutdated):
		logging.Logger().Warn("surface unavailable, retrying next frame", "error", err)
		return nil
	case errors.Is(err, ErrOutOfMemory):
		return fmt.Errorf("present: %w", err)
	default:
		logging.Logger().Error("present failed", "error", err)
		p.mu.Lock()
		if p.pending == fb {
			p.pending = nil
		}
		p.mu.Unlock()
		return nil
	}
}

// Run redraws every interval until ctx is done or a fatal error occurs.
func (p *Presenter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.Redraw(ctx); err != nil {
				logging.Logger().Error("stopping presentation", "error", err)
				return err
			}
		}
	}
}
