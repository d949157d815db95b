// Package background separates sticker subjects from the chroma-key fill,
// either through a remote matting service or a local chroma-key pass.
package background

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"stickerline/internal/imaging"
	"stickerline/internal/infra"
)

// HTTPRemover posts each cell to an external matting endpoint and expects a
// PNG with alpha back.
type HTTPRemover struct {
	endpoint   string
	httpClient *http.Client
	logger     *infra.Logger
}

// NewHTTPRemover builds a remover against the given endpoint.
func NewHTTPRemover(endpoint string, client *http.Client, logger *infra.Logger) *HTTPRemover {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPRemover{
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: client,
		logger:     logger,
	}
}

// Remove fulfils imaging.BackgroundRemover.
func (r *HTTPRemover) Remove(ctx context.Context, cell *imaging.Image) (*image.NRGBA, error) {
	encoded, err := imaging.EncodePNG(cell.ToNRGBA())
	if err != nil {
		return nil, fmt.Errorf("encode cell: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "image/png")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call remover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("remover status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	decoded, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode remover response: %w", err)
	}
	return toNRGBA(decoded), nil
}

var _ imaging.BackgroundRemover = (*HTTPRemover)(nil)

// ChromaKeyRemover clears the key fill locally. It is the default when no
// remote matting service is configured; the in-cell spill cleanup downstream
// catches what the hard threshold here misses.
type ChromaKeyRemover struct{}

// NewChromaKeyRemover returns the local keying remover.
func NewChromaKeyRemover() *ChromaKeyRemover {
	return &ChromaKeyRemover{}
}

// Remove fulfils imaging.BackgroundRemover.
func (r *ChromaKeyRemover) Remove(_ context.Context, cell *imaging.Image) (*image.NRGBA, error) {
	out := cell.ToNRGBA()
	for i := 0; i < len(out.Pix); i += 4 {
		red, green, blue := out.Pix[i], out.Pix[i+1], out.Pix[i+2]
		if green >= 170 && red <= 80 && blue <= 80 {
			out.Pix[i+3] = 0
		}
	}
	return out, nil
}

var _ imaging.BackgroundRemover = (*ChromaKeyRemover)(nil)

// Select picks the remote remover when an endpoint is configured, otherwise
// the local chroma keyer.
func Select(endpoint string, client *http.Client, logger *infra.Logger) imaging.BackgroundRemover {
	if strings.TrimSpace(endpoint) != "" {
		return NewHTTPRemover(endpoint, client, logger)
	}
	return NewChromaKeyRemover()
}

func toNRGBA(src image.Image) *image.NRGBA {
	if nrgba, ok := src.(*image.NRGBA); ok {
		return nrgba
	}
	bounds := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Set(x-bounds.Min.X, y-bounds.Min.Y, src.At(x, y))
		}
	}
	return out
}
