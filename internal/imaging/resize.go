package imaging

import "image"

// resizeArea downscales with fractional box averaging, weighting every source
// pixel by its overlap with the destination pixel's footprint. Upscales
// degrade gracefully to bilinear-ish sampling with boxes under one pixel.
func resizeArea(src *image.NRGBA, dstW, dstH int) *image.NRGBA {
	srcW, srcH := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	if srcW == 0 || srcH == 0 {
		return dst
	}
	if srcW == dstW && srcH == dstH {
		copy(dst.Pix, src.Pix)
		return dst
	}

	xRatio := float64(srcW) / float64(dstW)
	yRatio := float64(srcH) / float64(dstH)

	for dy := 0; dy < dstH; dy++ {
		sy0 := float64(dy) * yRatio
		sy1 := sy0 + yRatio
		iy0, iy1 := int(sy0), clampCeil(sy1, srcH)

		for dx := 0; dx < dstW; dx++ {
			sx0 := float64(dx) * xRatio
			sx1 := sx0 + xRatio
			ix0, ix1 := int(sx0), clampCeil(sx1, srcW)

			var sum [4]float64
			var total float64
			for sy := iy0; sy < iy1; sy++ {
				wy := rowOverlap(sy, sy0, sy1)
				base := sy * src.Stride
				for sx := ix0; sx < ix1; sx++ {
					w := wy * rowOverlap(sx, sx0, sx1)
					p := base + sx*4
					sum[0] += float64(src.Pix[p]) * w
					sum[1] += float64(src.Pix[p+1]) * w
					sum[2] += float64(src.Pix[p+2]) * w
					sum[3] += float64(src.Pix[p+3]) * w
					total += w
				}
			}

			q := dy*dst.Stride + dx*4
			if total > 0 {
				dst.Pix[q] = uint8(sum[0]/total + 0.5)
				dst.Pix[q+1] = uint8(sum[1]/total + 0.5)
				dst.Pix[q+2] = uint8(sum[2]/total + 0.5)
				dst.Pix[q+3] = uint8(sum[3]/total + 0.5)
			}
		}
	}
	return dst
}

// rowOverlap is the length of the intersection between source pixel [i, i+1)
// and the box [lo, hi).
func rowOverlap(i int, lo, hi float64) float64 {
	a, b := float64(i), float64(i+1)
	if lo > a {
		a = lo
	}
	if hi < b {
		b = hi
	}
	if b <= a {
		return 0
	}
	return b - a
}

func clampCeil(v float64, limit int) int {
	n := int(v)
	if float64(n) < v {
		n++
	}
	if n > limit {
		n = limit
	}
	return n
}
