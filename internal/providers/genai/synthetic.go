package genai

import (
	"bytes"
	"crypto/sha256"
	"image"
	"image/color"
	"image/draw"
	"image/png"
)

const (
	syntheticSize   = 1024
	syntheticGutter = 14
)

// renderSyntheticSheet draws a deterministic 4x4 composite on the chroma-key
// background: green margins and gutters, one seeded colored blob per cell. It
// is shaped to survive the full grid pipeline end to end.
func renderSyntheticSheet(req SheetRequest) []byte {
	img := image.NewRGBA(image.Rect(0, 0, syntheticSize, syntheticSize))
	key := color.RGBA{R: 0, G: 255, B: 0, A: 255}
	draw.Draw(img, img.Bounds(), &image.Uniform{key}, image.Point{}, draw.Src)

	seed := sha256.Sum256(append([]byte(req.Instruction+"|"+req.RequestID), req.ImageData...))

	cell := syntheticSize / 4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			idx := row*4 + col
			fill := color.RGBA{
				R: seed[idx*2] | 0x40,
				G: seed[idx*2+1] >> 1,
				B: seed[(idx*2+5)%32] | 0x40,
				A: 255,
			}
			x0 := col*cell + syntheticGutter
			y0 := row*cell + syntheticGutter
			x1 := (col+1)*cell - syntheticGutter
			y1 := (row+1)*cell - syntheticGutter
			drawSyntheticBlob(img, x0, y0, x1, y1, fill)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

// drawSyntheticBlob fills an ellipse inscribed in the given box.
func drawSyntheticBlob(img *image.RGBA, x0, y0, x1, y1 int, fill color.RGBA) {
	cx := float64(x0+x1) / 2
	cy := float64(y0+y1) / 2
	rx := float64(x1-x0) / 2
	ry := float64(y1-y0) / 2
	if rx <= 0 || ry <= 0 {
		return
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			dx := (float64(x) + 0.5 - cx) / rx
			dy := (float64(y) + 0.5 - cy) / ry
			if dx*dx+dy*dy <= 1 {
				img.SetRGBA(x, y, fill)
			}
		}
	}
}
