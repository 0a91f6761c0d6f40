package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"

	"github.com/chazu/vellum/pkg/graphic"
)

// ErrUnsupportedImage is returned for blobs that are not a raster format
// DecodeImage understands.
var ErrUnsupportedImage = errors.New("unsupported image format")

var decoders = map[string]func([]byte) (image.Image, error){
	"png":  func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) },
	"jpg":  func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) },
	"gif":  func(b []byte) (image.Image, error) { return gif.Decode(bytes.NewReader(b)) },
	"bmp":  func(b []byte) (image.Image, error) { return bmp.Decode(bytes.NewReader(b)) },
	"webp": func(b []byte) (image.Image, error) { return webp.Decode(bytes.NewReader(b)) },
}

// DecodeImage sniffs the format of an encoded image and decodes it into a
// straight-alpha RGBA raster.
func DecodeImage(blob []byte) (graphic.Image, error) {
	kind, err := filetype.Match(blob)
	if err != nil {
		return graphic.Image{}, fmt.Errorf("sniff image: %w", err)
	}
	if kind == filetype.Unknown {
		return graphic.Image{}, ErrUnsupportedImage
	}
	decode, ok := decoders[kind.Extension]
	if !ok {
		return graphic.Image{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, kind.MIME.Value)
	}
	img, err := decode(blob)
	if err != nil {
		return graphic.Image{}, fmt.Errorf("decode %s: %w", kind.Extension, err)
	}
	return graphic.ImageFromGo(img), nil
}

// Format reports the sniffed extension of blob, or "" when unknown.
func Format(blob []byte) string {
	kind, err := filetype.Match(blob)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.Extension
}
