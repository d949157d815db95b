package image

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stickerline/internal/domain"
	"stickerline/internal/providers/genai"
)

// FallbackGenerator routes to a primary sheet provider and diverts to a
// secondary model when the primary's retry budget is exhausted on transient
// errors. When both are exhausted the caller sees a single rate-limit error
// rather than provider internals.
type FallbackGenerator struct {
	primary   Generator
	secondary Generator
}

// NewFallbackGenerator wires a primary generator with an optional secondary.
func NewFallbackGenerator(primary, secondary Generator) *FallbackGenerator {
	return &FallbackGenerator{primary: primary, secondary: secondary}
}

// Generate fulfils the Generator interface.
func (g *FallbackGenerator) Generate(ctx context.Context, req GenerateRequest) (*Sheet, error) {
	if g == nil || g.primary == nil {
		return nil, fmt.Errorf("fallback generator not configured")
	}

	sheet, err := g.primary.Generate(ctx, req)
	if err == nil {
		return sheet, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	if !exhaustedTransient(err) || g.secondary == nil {
		return nil, err
	}

	sheet, secondaryErr := g.secondary.Generate(ctx, req)
	if secondaryErr == nil {
		return sheet, nil
	}
	if exhaustedTransient(secondaryErr) {
		return nil, domain.ErrRateLimited
	}
	return nil, secondaryErr
}

var _ Generator = (*FallbackGenerator)(nil)

// exhaustedTransient reports whether the provider gave up on an error that a
// different model might not hit, quota exhaustion above all.
func exhaustedTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrRateLimited) {
		return true
	}
	if genai.IsRetryable(err) {
		return true
	}
	return strings.Contains(err.Error(), "retries exhausted")
}
