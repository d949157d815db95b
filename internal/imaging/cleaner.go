package imaging

import (
	"context"
	"fmt"
	"image"
)

// Canvas dimensions every finished sticker is normalized onto.
const (
	StickerWidth  = 370
	StickerHeight = 320
)

const (
	safeInsetRatio = 0.01
	outlinePad     = 12
	dilationPasses = 2
)

// BackgroundRemover separates the subject of an opaque RGB cell and returns
// it as NRGBA with alpha marking the foreground. Implementations live in
// internal/providers/background.
type BackgroundRemover interface {
	Remove(ctx context.Context, cell *Image) (*image.NRGBA, error)
}

// Cleaner turns the sixteen cells of a prepared composite into transparent,
// outlined, canvas-normalized sticker PNGs.
type Cleaner struct {
	remover BackgroundRemover
}

// NewCleaner builds a Cleaner around the provided background remover.
func NewCleaner(remover BackgroundRemover) *Cleaner {
	return &Cleaner{remover: remover}
}

// Process slices the composite along the resolved edges and cleans each cell,
// returning sixteen PNG blobs in row-major order. Any per-cell failure aborts
// the whole batch; partial sheets are never returned.
func (c *Cleaner) Process(ctx context.Context, img *Image, xEdges, yEdges GridEdges) ([][]byte, error) {
	out := make([][]byte, 0, 16)
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			cell := img.Crop(xEdges[col], yEdges[row], xEdges[col+1], yEdges[row+1])
			cell = applySafeInset(cell, safeInsetRatio)
			sticker, err := c.cleanCell(ctx, cell)
			if err != nil {
				return nil, fmt.Errorf("cell %d,%d: %w", row, col, err)
			}
			out = append(out, sticker)
		}
	}
	return out, nil
}

// applySafeInset trims a thin border from the cell to discard bleed from
// neighboring cells.
func applySafeInset(cell *Image, ratio float64) *Image {
	insetX := int(float64(cell.W)*ratio + 0.5)
	insetY := int(float64(cell.H)*ratio + 0.5)
	if insetX <= 0 && insetY <= 0 {
		return cell
	}
	x0 := min(insetX, cell.W-1)
	y0 := min(insetY, cell.H-1)
	x1 := max(cell.W-insetX, x0+1)
	y1 := max(cell.H-insetY, y0+1)
	return cell.Crop(x0, y0, x1, y1)
}

func (c *Cleaner) cleanCell(ctx context.Context, cell *Image) ([]byte, error) {
	rgba, err := c.remover.Remove(ctx, cell)
	if err != nil {
		return nil, fmt.Errorf("remove background: %w", err)
	}

	removeKeySpill(rgba)
	removeSmallAlphaBlobs(rgba)

	cropped := cropToAlpha(rgba)
	padded := padTransparent(cropped, outlinePad)
	outlined := applyWhiteOutline(padded)
	canvas := fitToCanvas(outlined, StickerWidth, StickerHeight)

	return EncodePNG(canvas)
}

// removeKeySpill zeroes alpha on pixels still close to the chroma key, even
// when the remover left partial alpha there.
func removeKeySpill(img *image.NRGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		r, g, b := img.Pix[i], img.Pix[i+1], img.Pix[i+2]
		if g >= 170 && r <= 80 && b <= 80 {
			img.Pix[i+3] = 0
		}
	}
}

// removeSmallAlphaBlobs discards 8-connected alpha components smaller than
// max(50, 0.2% of the cell area) pixels. Stray debris from imperfect
// background removal shows up as exactly these fragments.
func removeSmallAlphaBlobs(img *image.NRGBA) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return
	}
	minArea := w * h / 500
	if minArea < 50 {
		minArea = 50
	}

	labels := make([]int32, w*h)
	var stack []int32

	label := int32(0)
	for start := 0; start < w*h; start++ {
		if labels[start] != 0 || img.Pix[start*4+3] == 0 {
			continue
		}
		label++
		area := 0
		var pixels []int32
		stack = append(stack[:0], int32(start))
		labels[start] = label
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			area++
			pixels = append(pixels, p)
			px, py := int(p)%w, int(p)/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := px+dx, py+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					n := int32(ny*w + nx)
					if labels[n] == 0 && img.Pix[n*4+3] != 0 {
						labels[n] = label
						stack = append(stack, n)
					}
				}
			}
		}
		if area < minArea {
			for _, p := range pixels {
				img.Pix[p*4+3] = 0
			}
		}
	}
}

// cropToAlpha trims to the tight bounding box of non-zero alpha. A fully
// transparent cell is returned unchanged.
func cropToAlpha(img *image.NRGBA) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	minX, minY, maxX, maxY := w, h, -1, -1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if img.Pix[(y*w+x)*4+3] != 0 {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	if maxX < 0 {
		return img
	}
	out := image.NewNRGBA(image.Rect(0, 0, maxX-minX+1, maxY-minY+1))
	for y := minY; y <= maxY; y++ {
		src := (y*w + minX) * 4
		dst := (y - minY) * out.Stride
		copy(out.Pix[dst:dst+out.Stride], img.Pix[src:src+(maxX-minX+1)*4])
	}
	return out
}

// padTransparent surrounds the image with a transparent border wide enough
// for the outline stroke not to clip.
func padTransparent(img *image.NRGBA, pad int) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w+2*pad, h+2*pad))
	for y := 0; y < h; y++ {
		src := y * img.Stride
		dst := (y+pad)*out.Stride + pad*4
		copy(out.Pix[dst:dst+w*4], img.Pix[src:src+w*4])
	}
	return out
}

// ellipseKernel5 is a 5x5 elliptical structuring element (disc shape).
var ellipseKernel5 = [5][5]bool{
	{false, false, true, false, false},
	{true, true, true, true, true},
	{true, true, true, true, true},
	{true, true, true, true, true},
	{false, false, true, false, false},
}

// dilateAlpha runs one pass of morphological dilation over the alpha plane.
func dilateAlpha(alpha []uint8, w, h int) []uint8 {
	out := make([]uint8, len(alpha))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var best uint8
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					if !ellipseKernel5[ky+2][kx+2] {
						continue
					}
					nx, ny := x+kx, y+ky
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					if v := alpha[ny*w+nx]; v > best {
						best = v
					}
				}
			}
			out[y*w+x] = best
		}
	}
	return out
}

// applyWhiteOutline paints a solid white stroke hugging the silhouette: the
// alpha channel is dilated, the dilated halo becomes opaque white, and the
// original artwork is layered back on top.
func applyWhiteOutline(img *image.NRGBA) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	alpha := make([]uint8, w*h)
	for p := 0; p < w*h; p++ {
		alpha[p] = img.Pix[p*4+3]
	}
	dilated := alpha
	for i := 0; i < dilationPasses; i++ {
		dilated = dilateAlpha(dilated, w, h)
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for p := 0; p < w*h; p++ {
		if dilated[p] > 0 {
			out.Pix[p*4] = 0xff
			out.Pix[p*4+1] = 0xff
			out.Pix[p*4+2] = 0xff
			out.Pix[p*4+3] = 0xff
		}
		if alpha[p] > 0 {
			copy(out.Pix[p*4:p*4+4], img.Pix[p*4:p*4+4])
		}
	}
	return out
}

// fitToCanvas resizes preserving aspect ratio and centers the result on a
// transparent canvas of the target dimensions.
func fitToCanvas(img *image.NRGBA, targetW, targetH int) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	canvas := image.NewNRGBA(image.Rect(0, 0, targetW, targetH))
	if w == 0 || h == 0 {
		return canvas
	}

	scale := float64(targetW) / float64(w)
	if s := float64(targetH) / float64(h); s < scale {
		scale = s
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	resized := resizeArea(img, newW, newH)

	xOff := (targetW - newW) / 2
	yOff := (targetH - newH) / 2
	for y := 0; y < newH; y++ {
		src := y * resized.Stride
		dst := (y+yOff)*canvas.Stride + xOff*4
		copy(canvas.Pix[dst:dst+newW*4], resized.Pix[src:src+newW*4])
	}
	return canvas
}
