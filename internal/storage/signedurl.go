package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// URLSigner mints and verifies expiring HMAC signatures for sticker blob
// URLs, so blobs can be served without an authenticated session (image tags,
// the LINE client) while staying unguessable.
type URLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewURLSigner builds a signer. A non-positive ttl falls back to one hour.
func NewURLSigner(secret string, ttl time.Duration) (*URLSigner, error) {
	if secret == "" {
		return nil, errors.New("storage: signing secret is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &URLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Sign returns the path-and-query for fetching the blob at key, valid until
// the signer's ttl elapses.
func (s *URLSigner) Sign(key string) string {
	exp := s.now().Add(s.ttl).Unix()
	sig := s.signature(key, exp)
	return fmt.Sprintf("/files/%s?exp=%d&sig=%s", pathEscapeKey(key), exp, sig)
}

// Verify checks the signature and expiry for key. It returns ErrExpired past
// the deadline and ErrBadSignature on mismatch.
func (s *URLSigner) Verify(key string, exp int64, sig string) error {
	if s.now().Unix() > exp {
		return ErrExpired
	}
	expected := s.signature(key, exp)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrBadSignature
	}
	return nil
}

var (
	ErrExpired      = errors.New("storage: url expired")
	ErrBadSignature = errors.New("storage: bad url signature")
)

func (s *URLSigner) signature(key string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(key))
	mac.Write([]byte("|"))
	mac.Write([]byte(strconv.FormatInt(exp, 10)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// pathEscapeKey escapes each segment but keeps the slashes that structure
// storage keys.
func pathEscapeKey(key string) string {
	out := ""
	for i, seg := range splitKey(key) {
		if i > 0 {
			out += "/"
		}
		out += url.PathEscape(seg)
	}
	return out
}

func splitKey(key string) []string {
	var segs []string
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			segs = append(segs, key[start:i])
			start = i + 1
		}
	}
	return append(segs, key[start:])
}
