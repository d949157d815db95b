package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInsufficientCoins = errors.New("insufficient coins")
	ErrInvalidStyle      = errors.New("unsupported style id")
	ErrInvalidPrompt     = errors.New("invalid prompt")
	ErrNoImageData       = errors.New("no image data returned")
	ErrRateLimited       = errors.New("generation service is busy, please try again in a moment")
	ErrProviderFailure   = errors.New("provider failure")
)
