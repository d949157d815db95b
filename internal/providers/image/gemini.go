package image

import (
	"context"
	"fmt"
	"time"

	"stickerline/internal/providers/genai"
)

type sheetClient interface {
	GenerateSheet(ctx context.Context, req genai.SheetRequest) ([]byte, error)
	Model() string
}

// GeminiGenerator calls the Gemini client with exponential-backoff retries on
// transient failures. Permanent errors surface immediately.
type GeminiGenerator struct {
	client     sheetClient
	backoff    *genai.Backoff
	maxRetries int
}

// NewGeminiGenerator wires a Gemini client with a retry budget. maxRetries is
// the number of additional attempts after the first.
func NewGeminiGenerator(client sheetClient, backoff *genai.Backoff, maxRetries int) *GeminiGenerator {
	if backoff == nil {
		backoff = genai.NewBackoff(0, nil)
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &GeminiGenerator{client: client, backoff: backoff, maxRetries: maxRetries}
}

// Generate fulfils the Generator interface.
func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (*Sheet, error) {
	if g == nil || g.client == nil {
		return nil, fmt.Errorf("gemini generator not configured")
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, g.backoff.Delay(attempt-1)); err != nil {
				return nil, err
			}
		}

		data, err := g.client.GenerateSheet(ctx, genai.SheetRequest{
			Instruction: req.Instruction,
			ImageData:   req.ImageData,
			ImageMime:   req.ImageMime,
			RequestID:   req.RequestID,
		})
		if err == nil {
			return &Sheet{Data: data, Format: "image/png", Model: g.client.Model()}, nil
		}
		if !genai.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("retries exhausted: %w", lastErr)
}

func (g *GeminiGenerator) String() string {
	if g == nil || g.client == nil {
		return "gemini"
	}
	return g.client.Model()
}

var _ Generator = (*GeminiGenerator)(nil)

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
