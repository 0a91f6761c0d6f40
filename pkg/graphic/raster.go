package graphic

import (
	"image"
	"image/draw"
)

// Image is a straight-alpha RGBA8 raster. Data holds Width*Height*4 bytes
// in row-major order.
type Image struct {
	Width  uint32
	Height uint32
	Data   []byte
}

// NewImage returns a transparent image.
func NewImage(width, height uint32) Image {
	return Image{Width: width, Height: height, Data: make([]byte, int(width)*int(height)*4)}
}

// ImageFromGo converts any image.Image.
func ImageFromGo(src image.Image) Image {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && n.Stride == b.Dx()*4 && b.Min == (image.Point{}) {
		data := make([]byte, len(n.Pix))
		copy(data, n.Pix)
		return Image{Width: uint32(b.Dx()), Height: uint32(b.Dy()), Data: data}
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return Image{Width: uint32(b.Dx()), Height: uint32(b.Dy()), Data: dst.Pix}
}

// NRGBA exposes the image as an image.NRGBA sharing Data.
func (i Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    i.Data,
		Stride: int(i.Width) * 4,
		Rect:   image.Rect(0, 0, int(i.Width), int(i.Height)),
	}
}

// At returns the pixel at (x, y).
func (i Image) At(x, y uint32) Color {
	return ColorFromNRGBA(i.NRGBA().NRGBAAt(int(x), int(y)))
}

// FillImage returns an image of the given size filled with c.
func FillImage(width, height uint32, c Color) Image {
	img := NewImage(width, height)
	n := c.NRGBA()
	for p := 0; p < len(img.Data); p += 4 {
		img.Data[p], img.Data[p+1], img.Data[p+2], img.Data[p+3] = n.R, n.G, n.B, n.A
	}
	return img
}
