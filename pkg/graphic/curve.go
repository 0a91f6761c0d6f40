package graphic

import "math"

// CurveManipulatorGroup is an interior control point of a Curve with its two
// handles.
type CurveManipulatorGroup struct {
	Anchor  [2]float64
	Handles [2][2]float64
}

// Curve maps [0, 1] to [0, 1] through cubic segments. The endpoints are
// fixed at (0,0) and (1,1); FirstHandle and LastHandle shape the outer
// segments.
type Curve struct {
	Manipulators []CurveManipulatorGroup
	FirstHandle  [2]float64
	LastHandle   [2]float64
}

func (Curve) Default() Curve {
	return Curve{FirstHandle: [2]float64{0.2, 0.2}, LastHandle: [2]float64{0.8, 0.8}}
}

// Evaluate returns the curve's y for x, solving each segment's x(t) by
// bisection.
func (c Curve) Evaluate(x float64) float64 {
	x = math.Max(0, math.Min(1, x))
	type seg struct{ p0, c0, c1, p1 [2]float64 }
	var segs []seg
	prev, prevHandle := [2]float64{0, 0}, c.FirstHandle
	for _, m := range c.Manipulators {
		segs = append(segs, seg{prev, prevHandle, m.Handles[0], m.Anchor})
		prev, prevHandle = m.Anchor, m.Handles[1]
	}
	segs = append(segs, seg{prev, prevHandle, c.LastHandle, [2]float64{1, 1}})

	for _, s := range segs {
		if x > s.p1[0] {
			continue
		}
		lo, hi := 0.0, 1.0
		for range 40 {
			mid := (lo + hi) / 2
			if cubic(s.p0[0], s.c0[0], s.c1[0], s.p1[0], mid) < x {
				lo = mid
			} else {
				hi = mid
			}
		}
		return cubic(s.p0[1], s.c0[1], s.c1[1], s.p1[1], (lo+hi)/2)
	}
	return 1
}

func cubic(p0, c0, c1, p1, t float64) float64 {
	u := 1 - t
	return u*u*u*p0 + 3*u*u*t*c0 + 3*u*t*t*c1 + t*t*t*p1
}
