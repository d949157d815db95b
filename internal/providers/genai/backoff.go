package genai

import (
	"errors"
	"math/rand"
	"strings"
	"time"
)

// Backoff produces exponential delays with additive jitter for retrying
// transient Gemini failures. The zero value is not usable; construct with
// NewBackoff.
type Backoff struct {
	base time.Duration
	rand *rand.Rand
}

// NewBackoff builds a backoff schedule starting at base. A nil source falls
// back to the global one.
func NewBackoff(base time.Duration, r *rand.Rand) *Backoff {
	if base <= 0 {
		base = 5 * time.Second
	}
	return &Backoff{base: base, rand: r}
}

// Delay returns the wait before retry number attempt (zero-based): the base
// doubled per attempt, plus up to 25% of uniform jitter so concurrent jobs
// do not retry in lockstep.
func (b *Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := b.base << uint(attempt)
	jitter := b.float64() * 0.25 * float64(delay)
	return delay + time.Duration(jitter)
}

func (b *Backoff) float64() float64 {
	if b.rand != nil {
		return b.rand.Float64()
	}
	return rand.Float64()
}

// IsRetryable reports whether a generation failure is worth another attempt.
// Quota exhaustion and transient unavailability retry; everything else fails
// fast.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"429",
		"resource exhausted",
		"resource_exhausted",
		"too many requests",
		"unavailable",
		"timeout",
		"deadline exceeded",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
