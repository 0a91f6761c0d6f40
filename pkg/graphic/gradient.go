package graphic

import (
	"slices"

	"github.com/gogpu/gg"
)

// GradientStops are color stops sorted by offset in [0, 1].
type GradientStops []gg.ColorStop

// Default is a black to white ramp.
func (GradientStops) Default() GradientStops {
	return GradientStops{
		{Offset: 0, Color: gg.RGBA(Black)},
		{Offset: 1, Color: gg.RGBA(White)},
	}
}

// Sorted returns a copy ordered by offset.
func (s GradientStops) Sorted() GradientStops {
	out := slices.Clone(s)
	slices.SortStableFunc(out, func(a, b gg.ColorStop) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	})
	return out
}

// Evaluate returns the interpolated color at t.
func (s GradientStops) Evaluate(t float64) Color {
	if len(s) == 0 {
		return Transparent
	}
	stops := s.Sorted()
	if t <= stops[0].Offset {
		return Color(stops[0].Color)
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t <= b.Offset {
			span := b.Offset - a.Offset
			if span <= 0 {
				return Color(b.Color)
			}
			return Color(a.Color.Lerp(b.Color, (t-a.Offset)/span))
		}
	}
	return Color(stops[len(stops)-1].Color)
}

// Gradient is a linear or radial gradient between Start and End in the
// space given by Transform.
type Gradient struct {
	Stops     GradientStops
	Type      GradientType
	Start     DVec2
	End       DVec2
	Transform DAffine2
}

func (Gradient) Default() Gradient {
	return Gradient{
		Stops:     GradientStops{}.Default(),
		Type:      GradientLinear,
		Start:     DVec2{X: 0, Y: 0.5},
		End:       DVec2{X: 1, Y: 0.5},
		Transform: gg.Identity(),
	}
}
