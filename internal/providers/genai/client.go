package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stickerline/internal/infra"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client is a thin facade over the Gemini generateContent API focused on
// image-to-image sticker sheet rendering. Without an API key it falls back to
// a deterministic synthetic composite so the grid pipeline stays exercisable
// in local and CI environments.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

// SheetRequest carries everything needed to render one sticker sheet.
type SheetRequest struct {
	Instruction string
	ImageData   []byte
	ImageMime   string
	RequestID   string
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

// StatusError is an HTTP-level failure from the Gemini API, preserving the
// status code so callers can decide whether a retry is worthwhile.
type StatusError struct {
	Code    int
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gemini status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("gemini status %d", e.Code)
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with sensible timeouts will be created.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := opts.Model
	if model == "" {
		model = "gemini-3-pro-image-preview"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
	}, nil
}

// Model returns the configured Gemini model identifier.
func (c *Client) Model() string {
	return c.model
}

// GenerateSheet renders a sticker sheet composite from the reference image and
// instruction. The returned bytes are the raw encoded composite, PNG unless
// the model says otherwise.
func (c *Client) GenerateSheet(ctx context.Context, req SheetRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.apiKey == "" {
		c.logger.Debug().
			Str("request_id", req.RequestID).
			Str("model", c.model).
			Msg("genai: no api key, rendering synthetic sheet")
		return renderSyntheticSheet(req), nil
	}

	mime := req.ImageMime
	if mime == "" {
		mime = "image/png"
	}
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{InlineData: &geminiInlineData{
					MimeType: mime,
					Data:     base64.StdEncoding.EncodeToString(req.ImageData),
				}},
				{Text: req.Instruction},
			},
		}},
	}

	var response geminiGenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.model))
	if err := c.invoke(ctx, path, payload, &response); err != nil {
		return nil, err
	}

	data, err := extractSheet(response)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.model).
		Int("bytes", len(data)).
		Msg("genai: generated remote sheet")

	return data, nil
}

// extractSheet pulls the first image payload from the candidates. A text-only
// part is accepted only when it decodes as plausible base64 image data; some
// models return the image that way.
func extractSheet(response geminiGenerateContentResponse) ([]byte, error) {
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("decode inline data: %w", err)
				}
				return data, nil
			}
		}
	}
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			text := strings.TrimSpace(part.Text)
			if plausibleBase64(text) {
				if data, err := base64.StdEncoding.DecodeString(text); err == nil {
					return data, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("no image data in response")
}

// plausibleBase64 filters out prose so that explanatory model output is not
// mistaken for an encoded image.
func plausibleBase64(s string) bool {
	if len(s) < 100 || len(s)%4 != 0 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '+' || r == '/' || r == '=':
		default:
			return false
		}
	}
	return true
}

func (c *Client) invoke(ctx context.Context, path string, payload any, out any) error {
	endpoint := strings.TrimRight(c.baseURL, "/") + path
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		statusErr := &StatusError{Code: resp.StatusCode}
		var apiErr geminiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			statusErr.Message = apiErr.Error.Message
			statusErr.Status = apiErr.Error.Status
		} else if data, _ := io.ReadAll(resp.Body); len(data) > 0 {
			statusErr.Message = strings.TrimSpace(string(data))
		}
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}
