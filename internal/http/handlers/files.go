package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"stickerline/internal/storage"
)

// ServeFile serves a stored blob after validating its signed URL. Sticker
// URLs embed an HMAC and expiry instead of requiring a session.
func (a *App) ServeFile(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		a.error(w, http.StatusNotFound, "not_found", "file not found")
		return
	}

	exp, err := strconv.ParseInt(r.URL.Query().Get("exp"), 10, 64)
	if err != nil {
		a.error(w, http.StatusForbidden, "forbidden", "invalid url signature")
		return
	}
	sig := r.URL.Query().Get("sig")

	if err := a.Signer.Verify(key, exp, sig); err != nil {
		if errors.Is(err, storage.ErrExpired) {
			a.error(w, http.StatusForbidden, "forbidden", "url expired")
			return
		}
		a.error(w, http.StatusForbidden, "forbidden", "invalid url signature")
		return
	}

	data, err := a.Store.Read(r.Context(), key)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "file not found")
		return
	}

	w.Header().Set("Content-Type", contentTypeForKey(key))
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = w.Write(data)
}

func contentTypeForKey(key string) string {
	switch {
	case strings.HasSuffix(key, ".png"):
		return "image/png"
	case strings.HasSuffix(key, ".jpg"), strings.HasSuffix(key, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(key, ".webp"):
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
