package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
)

// Image is a tightly packed 3-channel RGB pixel buffer. It is the working
// representation for composite sheets and grid cells before the background
// remover introduces an alpha channel.
type Image struct {
	W, H int
	Pix  []uint8 // len == W*H*3, row-major
}

// NewImage allocates a zeroed RGB buffer.
func NewImage(w, h int) *Image {
	return &Image{W: w, H: h, Pix: make([]uint8, w*h*3)}
}

// At returns the RGB triple at (x, y). Callers must stay in bounds.
func (m *Image) At(x, y int) (r, g, b uint8) {
	i := (y*m.W + x) * 3
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// Set writes the RGB triple at (x, y).
func (m *Image) Set(x, y int, r, g, b uint8) {
	i := (y*m.W + x) * 3
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = r, g, b
}

// Crop copies the half-open region [x0,x1)x[y0,y1) into a new buffer.
func (m *Image) Crop(x0, y0, x1, y1 int) *Image {
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > m.W {
		x1 = m.W
	}
	if y1 > m.H {
		y1 = m.H
	}
	if x1 <= x0 || y1 <= y0 {
		return NewImage(0, 0)
	}
	out := NewImage(x1-x0, y1-y0)
	for y := y0; y < y1; y++ {
		src := (y*m.W + x0) * 3
		dst := (y - y0) * out.W * 3
		copy(out.Pix[dst:dst+out.W*3], m.Pix[src:src+out.W*3])
	}
	return out
}

// DecodeRGB decodes PNG or JPEG bytes into an RGB buffer, flattening any
// alpha against black.
func DecodeRGB(data []byte) (*Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode composite: %w", err)
	}
	bounds := src.Bounds()
	out := NewImage(bounds.Dx(), bounds.Dy())
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := src.At(x, y).RGBA()
			out.Pix[i] = uint8(r >> 8)
			out.Pix[i+1] = uint8(g >> 8)
			out.Pix[i+2] = uint8(b >> 8)
			i += 3
		}
	}
	return out, nil
}

// ToNRGBA expands the RGB buffer into an opaque NRGBA image.
func (m *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, m.W, m.H))
	si, di := 0, 0
	for p := 0; p < m.W*m.H; p++ {
		out.Pix[di] = m.Pix[si]
		out.Pix[di+1] = m.Pix[si+1]
		out.Pix[di+2] = m.Pix[si+2]
		out.Pix[di+3] = 0xff
		si += 3
		di += 4
	}
	return out
}

// EncodePNG serializes an NRGBA image to PNG bytes, preserving alpha.
func EncodePNG(img *image.NRGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
