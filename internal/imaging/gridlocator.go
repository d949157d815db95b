package imaging

import (
	"math"
	"sort"
)

// GridEdges holds five monotonically increasing offsets partitioning one axis
// into four cells: edges[0] == 0 and edges[4] == axis size.
type GridEdges [5]int

// Span returns the total extent covered by the edges.
func (e GridEdges) Span() int { return e[4] - e[0] }

const (
	// Margins at least this green are treated as model padding and trimmed.
	marginKeyRatio = 0.98
	// Content ratio below this marks a candidate gutter line.
	gutterThreshold = 0.015
	// Gutter centers farther than this fraction of the axis from the ideal
	// quarter-point reject detection for that axis.
	maxCenterDrift = 0.2
)

// isKeyMargin classifies the strict chroma key used for margin trimming.
func isKeyMargin(r, g, b uint8) bool { return g >= 200 && r <= 40 && b <= 40 }

// isKeyContent classifies the slightly looser key used for the content mask.
func isKeyContent(r, g, b uint8) bool { return g >= 200 && r <= 60 && b <= 60 }

// Prepare trims solid chroma-key margins and center-crops both axes to the
// nearest multiple of four so cell slicing cannot drift. Call before Locate;
// the returned image is the one the resolved edges refer to.
func Prepare(img *Image) *Image {
	img = trimKeyMargins(img)
	return normalizeGridSize(img)
}

// Locate resolves the 4x4 cell boundaries of the prepared composite. Each
// axis is detected independently from the chroma-key gutters; an axis whose
// gutters cannot be matched to the quarter-points falls back to exact equal
// quartering. fallback reports whether either axis degraded.
func Locate(img *Image) (xEdges, yEdges GridEdges, fallback bool) {
	xe, xOK := detectAxisEdges(img, true)
	if !xOK {
		xe = equalEdges(img.W)
	}
	ye, yOK := detectAxisEdges(img, false)
	if !yOK {
		ye = equalEdges(img.H)
	}
	return xe, ye, !xOK || !yOK
}

func trimKeyMargins(img *Image) *Image {
	if img.W == 0 || img.H == 0 {
		return img
	}
	rowKey := make([]float64, img.H)
	colKey := make([]float64, img.W)
	colCounts := make([]int, img.W)
	for y := 0; y < img.H; y++ {
		rowCount := 0
		for x := 0; x < img.W; x++ {
			if isKeyMargin(img.At(x, y)) {
				rowCount++
				colCounts[x]++
			}
		}
		rowKey[y] = float64(rowCount) / float64(img.W)
	}
	for x := 0; x < img.W; x++ {
		colKey[x] = float64(colCounts[x]) / float64(img.H)
	}

	top, bottom := boundsBelow(rowKey, marginKeyRatio)
	left, right := boundsBelow(colKey, marginKeyRatio)
	// Entirely key-colored: nothing sensible to trim.
	if top < 0 || left < 0 {
		return img
	}
	if bottom <= top || right <= left {
		return img
	}
	return img.Crop(left, top, right+1, bottom+1)
}

// boundsBelow returns the first and last index whose value is below the
// threshold, or (-1, -1) when none exists.
func boundsBelow(values []float64, threshold float64) (int, int) {
	first, last := -1, -1
	for i, v := range values {
		if v < threshold {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	return first, last
}

func normalizeGridSize(img *Image) *Image {
	newW := (img.W / 4) * 4
	newH := (img.H / 4) * 4
	if newW == img.W && newH == img.H {
		return img
	}
	x0 := (img.W - newW) / 2
	y0 := (img.H - newH) / 2
	return img.Crop(x0, y0, x0+newW, y0+newH)
}

func equalEdges(size int) GridEdges {
	var e GridEdges
	for i := 0; i < 5; i++ {
		e[i] = int(math.Round(float64(size) * float64(i) / 4))
	}
	e[4] = size
	return e
}

type gutter struct {
	start, end int
	center     float64
}

// detectAxisEdges finds the three interior boundaries along one axis by
// matching low-content gutter runs to the ideal quarter-points.
func detectAxisEdges(img *Image, horizontal bool) (GridEdges, bool) {
	size := img.H
	if horizontal {
		size = img.W
	}
	if size == 0 {
		return GridEdges{}, false
	}

	ratios := contentRatios(img, horizontal)
	window := size / 300
	if window < 3 {
		window = 3
	}
	ratios = movingAverage(ratios, window)

	minWidth := size / 200
	if minWidth < 2 {
		minWidth = 2
	}
	gutters := findGutters(ratios, gutterThreshold, minWidth)
	if len(gutters) < 3 {
		return GridEdges{}, false
	}

	centers, ok := matchQuarterPoints(gutters, size)
	if !ok {
		return GridEdges{}, false
	}

	e := GridEdges{0, centers[0], centers[1], centers[2], size}
	for i := 1; i < 5; i++ {
		if e[i] <= e[i-1] {
			return GridEdges{}, false
		}
	}
	return e, true
}

// contentRatios computes the fraction of non-key pixels per column (when
// horizontal) or per row.
func contentRatios(img *Image, horizontal bool) []float64 {
	if horizontal {
		out := make([]float64, img.W)
		for x := 0; x < img.W; x++ {
			content := 0
			for y := 0; y < img.H; y++ {
				if !isKeyContent(img.At(x, y)) {
					content++
				}
			}
			out[x] = float64(content) / float64(img.H)
		}
		return out
	}
	out := make([]float64, img.H)
	for y := 0; y < img.H; y++ {
		content := 0
		for x := 0; x < img.W; x++ {
			if !isKeyContent(img.At(x, y)) {
				content++
			}
		}
		out[y] = float64(content) / float64(img.W)
	}
	return out
}

// movingAverage smooths with a centered window, clamping at the borders.
func movingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		return values
	}
	half := window / 2
	out := make([]float64, len(values))
	for i := range values {
		lo := i - half
		hi := i + (window - half - 1)
		if lo < 0 {
			lo = 0
		}
		if hi >= len(values) {
			hi = len(values) - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

func findGutters(ratios []float64, threshold float64, minWidth int) []gutter {
	var gutters []gutter
	start := -1
	for i, v := range ratios {
		if v < threshold {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if i-start >= minWidth {
				gutters = append(gutters, gutter{start: start, end: i - 1, center: float64(start+i-1) / 2})
			}
			start = -1
		}
	}
	if start >= 0 && len(ratios)-start >= minWidth {
		end := len(ratios) - 1
		gutters = append(gutters, gutter{start: start, end: end, center: float64(start+end) / 2})
	}
	return gutters
}

// matchQuarterPoints greedily assigns the nearest unused gutter to each ideal
// quarter boundary, rejecting the axis when any assignment drifts too far.
func matchQuarterPoints(gutters []gutter, size int) ([3]int, bool) {
	used := make([]bool, len(gutters))
	var centers [3]int
	for i := 1; i <= 3; i++ {
		target := float64(size) * float64(i) / 4
		best := -1
		bestDist := math.Inf(1)
		for gi, g := range gutters {
			if used[gi] {
				continue
			}
			if d := math.Abs(g.center - target); d < bestDist {
				best, bestDist = gi, d
			}
		}
		if best < 0 || bestDist > float64(size)*maxCenterDrift {
			return centers, false
		}
		used[best] = true
		centers[i-1] = int(math.Round(gutters[best].center))
	}
	sort.Ints(centers[:])
	return centers, true
}
