package graphic

import (
	"fmt"
	"slices"

	"github.com/gogpu/gg"
)

func enumString[E ~uint8](names []string, e E) string {
	if int(e) < len(names) {
		return names[e]
	}
	return fmt.Sprintf("%d", uint8(e))
}

func enumParse[E ~uint8](kind string, names []string, text []byte, dst *E) error {
	i := slices.Index(names, string(text))
	if i < 0 {
		return fmt.Errorf("unknown %s %q", kind, text)
	}
	*dst = E(i)
	return nil
}

type BlendMode uint8

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendDarken
	BlendColorBurn
	BlendLinearBurn
	BlendDarkerColor
	BlendScreen
	BlendLighten
	BlendColorDodge
	BlendLinearDodge
	BlendLighterColor
	BlendOverlay
	BlendSoftLight
	BlendHardLight
	BlendVividLight
	BlendLinearLight
	BlendPinLight
	BlendHardMix
	BlendDifference
	BlendExclusion
	BlendSubtract
	BlendDivide
	BlendHue
	BlendSaturation
	BlendColor
	BlendLuminosity
	BlendErase
	BlendRestore
	BlendMultiplyAlpha
	blendModeCount
)

var blendModeNames = []string{
	"Normal", "Multiply", "Darken", "ColorBurn", "LinearBurn", "DarkerColor",
	"Screen", "Lighten", "ColorDodge", "LinearDodge", "LighterColor",
	"Overlay", "SoftLight", "HardLight", "VividLight", "LinearLight", "PinLight", "HardMix",
	"Difference", "Exclusion", "Subtract", "Divide",
	"Hue", "Saturation", "Color", "Luminosity",
	"Erase", "Restore", "MultiplyAlpha",
}

func (m BlendMode) String() string                { return enumString(blendModeNames, m) }
func (m BlendMode) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *BlendMode) UnmarshalText(b []byte) error { return enumParse("BlendMode", blendModeNames, b, m) }

// BlendModes lists every blend mode.
func BlendModes() []BlendMode {
	out := make([]BlendMode, blendModeCount)
	for i := range out {
		out[i] = BlendMode(i)
	}
	return out
}

type LuminanceCalculation uint8

const (
	LuminanceSRGB LuminanceCalculation = iota
	LuminancePerceptual
	LuminanceAverageChannels
	LuminanceMinimumChannels
	LuminanceMaximumChannels
)

var luminanceNames = []string{"SRGB", "Perceptual", "AverageChannels", "MinimumChannels", "MaximumChannels"}

func (m LuminanceCalculation) String() string { return enumString(luminanceNames, m) }
func (m LuminanceCalculation) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
func (m *LuminanceCalculation) UnmarshalText(b []byte) error {
	return enumParse("LuminanceCalculation", luminanceNames, b, m)
}

type XY uint8

const (
	AxisX XY = iota
	AxisY
)

var xyNames = []string{"X", "Y"}

func (m XY) String() string                { return enumString(xyNames, m) }
func (m XY) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *XY) UnmarshalText(b []byte) error { return enumParse("XY", xyNames, b, m) }

type RedGreenBlue uint8

const (
	ChannelRed RedGreenBlue = iota
	ChannelGreen
	ChannelBlue
)

var rgbNames = []string{"Red", "Green", "Blue"}

func (m RedGreenBlue) String() string                { return enumString(rgbNames, m) }
func (m RedGreenBlue) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *RedGreenBlue) UnmarshalText(b []byte) error { return enumParse("RedGreenBlue", rgbNames, b, m) }

type RedGreenBlueAlpha uint8

const (
	ChannelRGBARed RedGreenBlueAlpha = iota
	ChannelRGBAGreen
	ChannelRGBABlue
	ChannelRGBAAlpha
)

var rgbaNames = []string{"Red", "Green", "Blue", "Alpha"}

func (m RedGreenBlueAlpha) String() string               { return enumString(rgbaNames, m) }
func (m RedGreenBlueAlpha) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m *RedGreenBlueAlpha) UnmarshalText(b []byte) error {
	return enumParse("RedGreenBlueAlpha", rgbaNames, b, m)
}

type RealTimeMode uint8

const (
	RealTimeUtc RealTimeMode = iota
	RealTimeYear
	RealTimeHour
	RealTimeMinute
	RealTimeSecond
	RealTimeMillisecond
)

var realTimeNames = []string{"Utc", "Year", "Hour", "Minute", "Second", "Millisecond"}

func (m RealTimeMode) String() string                { return enumString(realTimeNames, m) }
func (m RealTimeMode) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *RealTimeMode) UnmarshalText(b []byte) error { return enumParse("RealTimeMode", realTimeNames, b, m) }

type NoiseType uint8

const (
	NoisePerlin NoiseType = iota
	NoiseOpenSimplex2
	NoiseOpenSimplex2S
	NoiseCellular
	NoiseValueCubic
	NoiseValue
	NoiseWhite
)

var noiseNames = []string{"Perlin", "OpenSimplex2", "OpenSimplex2S", "Cellular", "ValueCubic", "Value", "WhiteNoise"}

func (m NoiseType) String() string                { return enumString(noiseNames, m) }
func (m NoiseType) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *NoiseType) UnmarshalText(b []byte) error { return enumParse("NoiseType", noiseNames, b, m) }

type FractalType uint8

const (
	FractalNone FractalType = iota
	FractalFBm
	FractalRidged
	FractalPingPong
	FractalDomainWarpProgressive
	FractalDomainWarpIndependent
)

var fractalNames = []string{"None", "FBm", "Ridged", "PingPong", "DomainWarpProgressive", "DomainWarpIndependent"}

func (m FractalType) String() string                { return enumString(fractalNames, m) }
func (m FractalType) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *FractalType) UnmarshalText(b []byte) error { return enumParse("FractalType", fractalNames, b, m) }

type CellularDistanceFunction uint8

const (
	CellularEuclidean CellularDistanceFunction = iota
	CellularEuclideanSq
	CellularManhattan
	CellularHybrid
)

var cellularDistanceNames = []string{"Euclidean", "EuclideanSq", "Manhattan", "Hybrid"}

func (m CellularDistanceFunction) String() string { return enumString(cellularDistanceNames, m) }
func (m CellularDistanceFunction) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
func (m *CellularDistanceFunction) UnmarshalText(b []byte) error {
	return enumParse("CellularDistanceFunction", cellularDistanceNames, b, m)
}

type CellularReturnType uint8

const (
	CellularCellValue CellularReturnType = iota
	CellularNearest
	CellularNextNearest
	CellularAverage
	CellularDifference
	CellularProduct
	CellularDivision
)

var cellularReturnNames = []string{"CellValue", "Nearest", "NextNearest", "Average", "Difference", "Product", "Division"}

func (m CellularReturnType) String() string               { return enumString(cellularReturnNames, m) }
func (m CellularReturnType) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m *CellularReturnType) UnmarshalText(b []byte) error {
	return enumParse("CellularReturnType", cellularReturnNames, b, m)
}

type DomainWarpType uint8

const (
	DomainWarpNone DomainWarpType = iota
	DomainWarpOpenSimplex2
	DomainWarpOpenSimplex2Reduced
	DomainWarpBasicGrid
)

var domainWarpNames = []string{"None", "OpenSimplex2", "OpenSimplex2Reduced", "BasicGrid"}

func (m DomainWarpType) String() string               { return enumString(domainWarpNames, m) }
func (m DomainWarpType) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m *DomainWarpType) UnmarshalText(b []byte) error {
	return enumParse("DomainWarpType", domainWarpNames, b, m)
}

type RelativeAbsolute uint8

const (
	Relative RelativeAbsolute = iota
	Absolute
)

var relativeAbsoluteNames = []string{"Relative", "Absolute"}

func (m RelativeAbsolute) String() string               { return enumString(relativeAbsoluteNames, m) }
func (m RelativeAbsolute) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m *RelativeAbsolute) UnmarshalText(b []byte) error {
	return enumParse("RelativeAbsolute", relativeAbsoluteNames, b, m)
}

type SelectiveColorChoice uint8

const (
	SelectiveReds SelectiveColorChoice = iota
	SelectiveYellows
	SelectiveGreens
	SelectiveCyans
	SelectiveBlues
	SelectiveMagentas
	SelectiveWhites
	SelectiveNeutrals
	SelectiveBlacks
)

var selectiveColorNames = []string{"Reds", "Yellows", "Greens", "Cyans", "Blues", "Magentas", "Whites", "Neutrals", "Blacks"}

func (m SelectiveColorChoice) String() string               { return enumString(selectiveColorNames, m) }
func (m SelectiveColorChoice) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m *SelectiveColorChoice) UnmarshalText(b []byte) error {
	return enumParse("SelectiveColorChoice", selectiveColorNames, b, m)
}

type GridType uint8

const (
	GridRectangular GridType = iota
	GridIsometric
)

var gridNames = []string{"Rectangular", "Isometric"}

func (m GridType) String() string                { return enumString(gridNames, m) }
func (m GridType) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *GridType) UnmarshalText(b []byte) error { return enumParse("GridType", gridNames, b, m) }

type ArcType uint8

const (
	ArcOpen ArcType = iota
	ArcClosed
	ArcPieSlice
)

var arcNames = []string{"Open", "Closed", "PieSlice"}

func (m ArcType) String() string                { return enumString(arcNames, m) }
func (m ArcType) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *ArcType) UnmarshalText(b []byte) error { return enumParse("ArcType", arcNames, b, m) }

type MergeByDistanceAlgorithm uint8

const (
	MergeSpatial MergeByDistanceAlgorithm = iota
	MergeTopological
)

var mergeNames = []string{"Spatial", "Topological"}

func (m MergeByDistanceAlgorithm) String() string               { return enumString(mergeNames, m) }
func (m MergeByDistanceAlgorithm) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m *MergeByDistanceAlgorithm) UnmarshalText(b []byte) error {
	return enumParse("MergeByDistanceAlgorithm", mergeNames, b, m)
}

type PointSpacingType uint8

const (
	SpacingSeparation PointSpacingType = iota
	SpacingQuantity
)

var spacingNames = []string{"Separation", "Quantity"}

func (m PointSpacingType) String() string               { return enumString(spacingNames, m) }
func (m PointSpacingType) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m *PointSpacingType) UnmarshalText(b []byte) error {
	return enumParse("PointSpacingType", spacingNames, b, m)
}

type StrokeCap uint8

const (
	CapButt StrokeCap = iota
	CapRound
	CapSquare
)

var capNames = []string{"Butt", "Round", "Square"}

func (m StrokeCap) String() string                { return enumString(capNames, m) }
func (m StrokeCap) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *StrokeCap) UnmarshalText(b []byte) error { return enumParse("StrokeCap", capNames, b, m) }

// LineCap converts to the rasterizer's cap style.
func (m StrokeCap) LineCap() gg.LineCap {
	switch m {
	case CapRound:
		return gg.LineCapRound
	case CapSquare:
		return gg.LineCapSquare
	default:
		return gg.LineCapButt
	}
}

type StrokeJoin uint8

const (
	JoinMiter StrokeJoin = iota
	JoinBevel
	JoinRound
)

var joinNames = []string{"Miter", "Bevel", "Round"}

func (m StrokeJoin) String() string                { return enumString(joinNames, m) }
func (m StrokeJoin) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *StrokeJoin) UnmarshalText(b []byte) error { return enumParse("StrokeJoin", joinNames, b, m) }

// LineJoin converts to the rasterizer's join style.
func (m StrokeJoin) LineJoin() gg.LineJoin {
	switch m {
	case JoinBevel:
		return gg.LineJoinBevel
	case JoinRound:
		return gg.LineJoinRound
	default:
		return gg.LineJoinMiter
	}
}

type StrokeAlign uint8

const (
	AlignCenter StrokeAlign = iota
	AlignInside
	AlignOutside
)

var strokeAlignNames = []string{"Center", "Inside", "Outside"}

func (m StrokeAlign) String() string                { return enumString(strokeAlignNames, m) }
func (m StrokeAlign) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *StrokeAlign) UnmarshalText(b []byte) error { return enumParse("StrokeAlign", strokeAlignNames, b, m) }

type PaintOrder uint8

const (
	StrokeAbove PaintOrder = iota
	StrokeBelow
)

var paintOrderNames = []string{"StrokeAbove", "StrokeBelow"}

func (m PaintOrder) String() string                { return enumString(paintOrderNames, m) }
func (m PaintOrder) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *PaintOrder) UnmarshalText(b []byte) error { return enumParse("PaintOrder", paintOrderNames, b, m) }

type FillType uint8

const (
	FillTypeSolid FillType = iota
	FillTypeGradient
)

var fillTypeNames = []string{"Solid", "Gradient"}

func (m FillType) String() string                { return enumString(fillTypeNames, m) }
func (m FillType) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *FillType) UnmarshalText(b []byte) error { return enumParse("FillType", fillTypeNames, b, m) }

type FillChoice uint8

const (
	FillNone FillChoice = iota
	FillSolid
	FillGradient
)

var fillChoiceNames = []string{"None", "Solid", "Gradient"}

func (m FillChoice) String() string                { return enumString(fillChoiceNames, m) }
func (m FillChoice) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *FillChoice) UnmarshalText(b []byte) error { return enumParse("FillChoice", fillChoiceNames, b, m) }

type GradientType uint8

const (
	GradientLinear GradientType = iota
	GradientRadial
)

var gradientTypeNames = []string{"Linear", "Radial"}

func (m GradientType) String() string                { return enumString(gradientTypeNames, m) }
func (m GradientType) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *GradientType) UnmarshalText(b []byte) error { return enumParse("GradientType", gradientTypeNames, b, m) }

type ReferencePoint uint8

const (
	RefNone ReferencePoint = iota
	RefTopLeft
	RefTopCenter
	RefTopRight
	RefCenterLeft
	RefCenter
	RefCenterRight
	RefBottomLeft
	RefBottomCenter
	RefBottomRight
)

var referencePointNames = []string{
	"None", "TopLeft", "TopCenter", "TopRight", "CenterLeft", "Center",
	"CenterRight", "BottomLeft", "BottomCenter", "BottomRight",
}

func (m ReferencePoint) String() string               { return enumString(referencePointNames, m) }
func (m ReferencePoint) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m *ReferencePoint) UnmarshalText(b []byte) error {
	return enumParse("ReferencePoint", referencePointNames, b, m)
}

// ParseReferencePoint parses a bare reference point name such as "TopLeft".
func ParseReferencePoint(name string) (ReferencePoint, error) {
	var p ReferencePoint
	err := p.UnmarshalText([]byte(name))
	return p, err
}

// Fraction returns the point's position within a unit box, with (0,0) the
// top left corner. ok is false for RefNone.
func (m ReferencePoint) Fraction() (DVec2, bool) {
	if m == RefNone || int(m) >= len(referencePointNames) {
		return DVec2{}, false
	}
	i := int(m) - 1
	return DVec2{X: float64(i%3) / 2, Y: float64(i/3) / 2}, true
}

type CentroidType uint8

const (
	CentroidArea CentroidType = iota
	CentroidLength
)

var centroidNames = []string{"Area", "Length"}

func (m CentroidType) String() string                { return enumString(centroidNames, m) }
func (m CentroidType) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *CentroidType) UnmarshalText(b []byte) error { return enumParse("CentroidType", centroidNames, b, m) }

type BooleanOperation uint8

const (
	BooleanUnion BooleanOperation = iota
	BooleanSubtractFront
	BooleanSubtractBack
	BooleanIntersect
	BooleanDifference
)

var booleanNames = []string{"Union", "SubtractFront", "SubtractBack", "Intersect", "Difference"}

func (m BooleanOperation) String() string               { return enumString(booleanNames, m) }
func (m BooleanOperation) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m *BooleanOperation) UnmarshalText(b []byte) error {
	return enumParse("BooleanOperation", booleanNames, b, m)
}

type TextAlign uint8

const (
	TextAlignLeft TextAlign = iota
	TextAlignCenter
	TextAlignRight
	TextAlignJustifyLeft
)

var textAlignNames = []string{"Left", "Center", "Right", "JustifyLeft"}

func (m TextAlign) String() string                { return enumString(textAlignNames, m) }
func (m TextAlign) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *TextAlign) UnmarshalText(b []byte) error { return enumParse("TextAlign", textAlignNames, b, m) }
