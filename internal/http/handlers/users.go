package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stickerline/internal/domain"
)

type permissionsResponse struct {
	CanDownload  bool    `json:"can_download"`
	CurrentSpent float64 `json:"current_spent"`
	Required     float64 `json:"required"`
}

// UserPermissions reports whether the user's lifetime spend unlocks the
// sticker download.
func (a *App) UserPermissions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("load user failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to retrieve user permissions")
		return
	}

	a.json(w, http.StatusOK, permissionsResponse{
		CanDownload:  user.CanDownload(),
		CurrentSpent: user.TotalSpentTHB,
		Required:     domain.DownloadSpendThresholdTHB,
	})
}
