package image

import "context"

// GenerateRequest describes a normalized sheet request passed to any provider.
type GenerateRequest struct {
	Instruction string
	ImageData   []byte
	ImageMime   string
	RequestID   string
}

// Sheet is one rendered composite returned by a provider.
type Sheet struct {
	Data   []byte
	Format string
	Model  string
}

// Generator is the contract implemented by all sheet providers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Sheet, error)
}
