package graphic

type (
	VectorDataTable    = Table[VectorData]
	RasterDataTable    = Table[Image]
	GraphicGroupTable  = Table[GraphicGroup]
	ArtboardGroupTable = Table[ArtboardGroup]
)

// ElementKind tags which table a GraphicElement holds.
type ElementKind uint8

const (
	ElementGroup ElementKind = iota
	ElementVector
	ElementRaster
)

// GraphicElement is one layer: a nested group, vector data or raster data.
type GraphicElement struct {
	Kind   ElementKind
	Group  *GraphicGroupTable
	Vector *VectorDataTable
	Raster *RasterDataTable
}

// Default returns an empty group element.
func (GraphicElement) Default() GraphicElement {
	return GraphicElement{Kind: ElementGroup, Group: &GraphicGroupTable{}}
}

func VectorElement(t VectorDataTable) GraphicElement {
	return GraphicElement{Kind: ElementVector, Vector: &t}
}

func RasterElement(t RasterDataTable) GraphicElement {
	return GraphicElement{Kind: ElementRaster, Raster: &t}
}

func GroupElement(t GraphicGroupTable) GraphicElement {
	return GraphicElement{Kind: ElementGroup, Group: &t}
}

// GraphicGroup is an ordered stack of layers.
type GraphicGroup struct {
	Elements []GraphicElement
}

// Walk calls fn for every vector instance in the group, depth first, with
// the accumulated transform.
func (g GraphicGroup) Walk(m DAffine2, vector func(VectorData, DAffine2), raster func(Image, DAffine2)) {
	for _, e := range g.Elements {
		switch e.Kind {
		case ElementVector:
			if e.Vector == nil || vector == nil {
				continue
			}
			for _, inst := range e.Vector.Instances {
				vector(inst.Value, m.Multiply(inst.Transform))
			}
		case ElementRaster:
			if e.Raster == nil || raster == nil {
				continue
			}
			for _, inst := range e.Raster.Instances {
				raster(inst.Value, m.Multiply(inst.Transform))
			}
		case ElementGroup:
			if e.Group == nil {
				continue
			}
			for _, inst := range e.Group.Instances {
				inst.Value.Walk(m.Multiply(inst.Transform), vector, raster)
			}
		}
	}
}

// Artboard is a clipped, labelled region of the document.
type Artboard struct {
	Group      GraphicGroupTable
	Label      string
	Location   IVec2
	Dimensions IVec2
	Background Color
	Clip       bool
}

func (Artboard) Default() Artboard {
	return Artboard{
		Label:      "Artboard",
		Dimensions: IVec2{X: 1920, Y: 1080},
		Background: White,
	}
}

// ArtboardGroup is the set of artboards in a document.
type ArtboardGroup struct {
	Artboards []Artboard
}
