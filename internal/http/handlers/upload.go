package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

type uploadRequest struct {
	ImageBase64 string `json:"image_base64"`
	Filename    string `json:"filename"`
}

type uploadResponse struct {
	StorageKey string `json:"storage_key"`
	URL        string `json:"url"`
}

var dataURIPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// Upload accepts a base64 reference photo and stores it for a later
// generation call.
func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	encoded := req.ImageBase64
	if loc := dataURIPrefix.FindStringIndex(encoded); loc != nil {
		encoded = encoded[loc[1]:]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid base64 image data")
		return
	}
	if !looksLikeImage(data) {
		a.error(w, http.StatusBadRequest, "bad_request", "data is not a valid JPEG, PNG or WEBP image")
		return
	}

	filename := path.Base(strings.TrimSpace(req.Filename))
	if filename == "" || filename == "." || filename == "/" {
		filename = "upload.jpg"
	}
	key := "uploads/" + uuid.NewString() + "/" + filename

	written, err := a.Store.Write(r.Context(), key, data)
	if err != nil {
		a.Logger.Error().Err(err).Msg("store upload failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store image")
		return
	}

	a.json(w, http.StatusOK, uploadResponse{
		StorageKey: written,
		URL:        a.Signer.Sign(written),
	})
}

// looksLikeImage checks the magic bytes of the supported formats.
func looksLikeImage(data []byte) bool {
	switch {
	case len(data) >= 2 && data[0] == 0xff && data[1] == 0xd8:
		return true
	case len(data) >= 4 && data[0] == 0x89 && string(data[1:4]) == "PNG":
		return true
	case len(data) >= 4 && string(data[:4]) == "RIFF":
		return true
	}
	return false
}
