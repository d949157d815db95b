package imaging

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
)

// keyRemover clears chroma-key pixels like the local production remover.
type keyRemover struct{}

func (keyRemover) Remove(_ context.Context, cell *Image) (*image.NRGBA, error) {
	out := cell.ToNRGBA()
	for i := 0; i < len(out.Pix); i += 4 {
		r, g, b := out.Pix[i], out.Pix[i+1], out.Pix[i+2]
		if g >= 170 && r <= 80 && b <= 80 {
			out.Pix[i+3] = 0
		}
	}
	return out, nil
}

func TestProcessProducesSixteenCanvasStickers(t *testing.T) {
	img := newKeyImage(400, 400)
	paintGrid(img, 400, 8)

	cleaner := NewCleaner(keyRemover{})
	edges := equalEdges(400)
	blobs, err := cleaner.Process(context.Background(), img, edges, edges)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(blobs) != 16 {
		t.Fatalf("got %d stickers, want 16", len(blobs))
	}

	for i, blob := range blobs {
		decoded, err := png.Decode(bytes.NewReader(blob))
		if err != nil {
			t.Fatalf("sticker %d: decode: %v", i, err)
		}
		bounds := decoded.Bounds()
		if bounds.Dx() != StickerWidth || bounds.Dy() != StickerHeight {
			t.Fatalf("sticker %d: size %dx%d, want %dx%d",
				i, bounds.Dx(), bounds.Dy(), StickerWidth, StickerHeight)
		}

		nrgba, ok := decoded.(*image.NRGBA)
		if !ok {
			t.Fatalf("sticker %d: decoded as %T", i, decoded)
		}
		if nrgba.Pix[3] != 0 {
			t.Fatalf("sticker %d: top-left corner is opaque", i)
		}
		opaque := 0
		for p := 3; p < len(nrgba.Pix); p += 4 {
			if nrgba.Pix[p] == 0xff {
				opaque++
			}
		}
		if opaque == 0 {
			t.Fatalf("sticker %d: no opaque pixels", i)
		}
	}
}

func TestRemoveSmallAlphaBlobs(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	setOpaque := func(x0, y0, x1, y1 int) {
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				p := y*img.Stride + x*4
				img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3] = 200, 50, 50, 255
			}
		}
	}
	setOpaque(10, 10, 70, 70)
	setOpaque(90, 90, 93, 93)

	removeSmallAlphaBlobs(img)

	if img.Pix[(20*100+20)*4+3] == 0 {
		t.Fatalf("large component removed")
	}
	if img.Pix[(91*100+91)*4+3] != 0 {
		t.Fatalf("small debris kept")
	}
}

func TestRemoveKeySpill(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	// Residual green with partial alpha, then genuine content.
	img.Pix = []uint8{60, 180, 60, 128, 200, 50, 50, 255}
	removeKeySpill(img)
	if img.Pix[3] != 0 {
		t.Fatalf("spill pixel kept alpha %d", img.Pix[3])
	}
	if img.Pix[7] != 255 {
		t.Fatalf("content pixel lost alpha")
	}
}

func TestCropToAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 50, 40))
	for y := 5; y < 15; y++ {
		for x := 10; x < 30; x++ {
			img.Pix[(y*50+x)*4+3] = 255
		}
	}
	cropped := cropToAlpha(img)
	if cropped.Rect.Dx() != 20 || cropped.Rect.Dy() != 10 {
		t.Fatalf("cropped to %dx%d, want 20x10", cropped.Rect.Dx(), cropped.Rect.Dy())
	}
}

func TestCropToAlphaFullyTransparent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 30, 30))
	cropped := cropToAlpha(img)
	if cropped.Rect.Dx() != 30 || cropped.Rect.Dy() != 30 {
		t.Fatalf("transparent cell resized to %dx%d", cropped.Rect.Dx(), cropped.Rect.Dy())
	}
}

func TestApplyWhiteOutlineSurroundsSubject(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	for y := 15; y < 25; y++ {
		for x := 15; x < 25; x++ {
			p := (y*40 + x) * 4
			img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3] = 200, 50, 50, 255
		}
	}

	out := applyWhiteOutline(img)

	// Just outside the subject the dilated halo is opaque white.
	p := (14*40 + 20) * 4
	if out.Pix[p] != 0xff || out.Pix[p+1] != 0xff || out.Pix[p+2] != 0xff || out.Pix[p+3] != 0xff {
		t.Fatalf("no white stroke adjacent to subject")
	}
	// The subject itself keeps its color.
	p = (20*40 + 20) * 4
	if out.Pix[p] != 200 {
		t.Fatalf("subject color overwritten by stroke")
	}
	// Far corners remain transparent.
	if out.Pix[3] != 0 {
		t.Fatalf("stroke leaked to the corner")
	}
}

func TestFitToCanvasPreservesAspect(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	canvas := fitToCanvas(img, StickerWidth, StickerHeight)
	if canvas.Rect.Dx() != StickerWidth || canvas.Rect.Dy() != StickerHeight {
		t.Fatalf("canvas %dx%d", canvas.Rect.Dx(), canvas.Rect.Dy())
	}
	// A square subject on a 370x320 canvas is height-bound: 320x320 centered,
	// leaving transparent bands left and right.
	if canvas.Pix[(160*canvas.Stride)+10*4+3] != 0 {
		t.Fatalf("left band not transparent")
	}
	if canvas.Pix[(160*canvas.Stride)+185*4+3] == 0 {
		t.Fatalf("center not opaque")
	}
}

func TestResizeAreaAveragesUniformly(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for p := 0; p < len(img.Pix); p += 4 {
		img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3] = 100, 150, 200, 255
	}
	out := resizeArea(img, 3, 3)
	if out.Rect.Dx() != 3 || out.Rect.Dy() != 3 {
		t.Fatalf("resized to %dx%d", out.Rect.Dx(), out.Rect.Dy())
	}
	for p := 0; p < len(out.Pix); p += 4 {
		if out.Pix[p] != 100 || out.Pix[p+1] != 150 || out.Pix[p+2] != 200 || out.Pix[p+3] != 255 {
			t.Fatalf("uniform image changed at %d: %v", p, out.Pix[p:p+4])
		}
	}
}
