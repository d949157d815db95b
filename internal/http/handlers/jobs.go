package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"stickerline/internal/domain"
	"stickerline/internal/middleware"
	"stickerline/internal/orchestrator"
	"stickerline/pkg/zip"
)

type generateRequest struct {
	Style         string `json:"style"`
	Prompt        string `json:"prompt"`
	ImageKey      string `json:"image_key"`
	LockedIndices []int  `json:"locked_indices"`
}

type jobResponse struct {
	JobID        string    `json:"job_id"`
	Status       string    `json:"status"`
	GridFallback bool      `json:"grid_fallback,omitempty"`
	Error        string    `json:"error,omitempty"`
	Slots        []slotDTO `json:"slots,omitempty"`
}

type slotDTO struct {
	Index  int    `json:"index"`
	URL    string `json:"url"`
	Locked bool   `json:"locked"`
}

// GenerateJob charges one coin, queues a generation job and returns its id.
// Processing continues in the background; poll JobStatus for the outcome.
func (a *App) GenerateJob(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.ImageKey = strings.TrimSpace(req.ImageKey)
	if req.ImageKey == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "image_key required")
		return
	}

	imageData, err := a.Store.Read(r.Context(), req.ImageKey)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "uploaded image not found")
		return
	}

	job, err := a.Orch.Submit(r.Context(), orchestrator.SubmitRequest{
		UserID:        userID,
		StyleID:       req.Style,
		Prompt:        req.Prompt,
		ImageRef:      req.ImageKey,
		ImageData:     imageData,
		ImageMime:     sniffImageMime(imageData),
		LockedIndices: req.LockedIndices,
		Locale:        middleware.LocaleFromContext(r.Context()),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidStyle), errors.Is(err, domain.ErrInvalidPrompt):
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		case errors.Is(err, domain.ErrInsufficientCoins):
			a.error(w, http.StatusPaymentRequired, "insufficient_coins", "not enough coins to generate")
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "user not found")
		default:
			a.Logger.Error().Err(err).Str("user_id", userID).Msg("job submit failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to start generation")
		}
		return
	}

	a.json(w, http.StatusAccepted, jobResponse{JobID: job.ID, Status: string(job.Status)})
}

// JobStatus returns the current state of a job owned by the caller.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	jobID := chi.URLParam(r, "job_id")

	job, err := a.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("load job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	if job.UserID != userID {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return
	}

	resp := jobResponse{
		JobID:        job.ID,
		Status:       string(job.Status),
		GridFallback: job.GridFallback,
		Error:        job.ErrorMessage,
	}
	if job.Status == domain.JobStatusCompleted {
		resp.Slots = a.presentSlots(job.ResultSlots)
	}
	a.json(w, http.StatusOK, resp)
}

type currentSetResponse struct {
	JobID string    `json:"job_id"`
	Slots []slotDTO `json:"slots"`
}

// CurrentSet returns the caller's current sticker set with signed URLs.
func (a *App) CurrentSet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	set, err := a.Slots.Load(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "no sticker set yet")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("load set failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load sticker set")
		return
	}

	a.json(w, http.StatusOK, currentSetResponse{JobID: set.JobID, Slots: a.presentSlots(set.Slots)})
}

// ResetSet clears the caller's current sticker set.
func (a *App) ResetSet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if err := a.Slots.Clear(r.Context(), userID); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("clear set failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to reset sticker set")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadSet streams the caller's current set as a zip. Gated on lifetime
// spend reaching the download threshold.
func (a *App) DownloadSet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	if !user.CanDownload() {
		a.error(w, http.StatusForbidden, "forbidden",
			fmt.Sprintf("download requires %.0f THB of lifetime spend", domain.DownloadSpendThresholdTHB))
		return
	}

	set, err := a.Slots.Load(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "no sticker set yet")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("load set failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load sticker set")
		return
	}

	stickers := make([]zip.Sticker, 0, len(set.Slots))
	for _, slot := range set.Slots {
		data, err := a.Store.Read(r.Context(), slot.StorageKey)
		if err != nil {
			a.Logger.Error().Err(err).Str("key", slot.StorageKey).Msg("read sticker blob failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to read stickers")
			return
		}
		stickers = append(stickers, zip.Sticker{Index: slot.Index, Data: data})
	}

	archive, err := zip.ArchiveStickers(stickers)
	if err != nil {
		a.Logger.Error().Err(err).Msg("archive stickers failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="stickers.zip"`)
	_, _ = w.Write(archive)
}

func (a *App) presentSlots(slots []domain.StickerSlot) []slotDTO {
	out := make([]slotDTO, len(slots))
	for i, slot := range slots {
		out[i] = slotDTO{
			Index:  slot.Index,
			URL:    a.Signer.Sign(slot.StorageKey),
			Locked: slot.Locked,
		}
	}
	return out
}

func sniffImageMime(data []byte) string {
	switch {
	case len(data) >= 2 && data[0] == 0xff && data[1] == 0xd8:
		return "image/jpeg"
	case len(data) >= 4 && string(data[1:4]) == "PNG":
		return "image/png"
	case len(data) >= 4 && string(data[:4]) == "RIFF":
		return "image/webp"
	default:
		return "image/png"
	}
}
