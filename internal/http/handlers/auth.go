package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"stickerline/internal/domain"
	"stickerline/internal/middleware"
)

type syncRequest struct {
	LineID      string `json:"line_id"`
	DisplayName string `json:"display_name"`
	PictureURL  string `json:"picture_url"`
}

type userDTO struct {
	ID            string  `json:"id"`
	DisplayName   string  `json:"display_name"`
	PictureURL    string  `json:"picture_url"`
	CoinBalance   int     `json:"coin_balance"`
	TotalSpentTHB float64 `json:"total_spent_thb"`
	CanDownload   bool    `json:"can_download"`
}

type syncResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

// AuthSync upserts the LIFF profile, grants the free trial coins on first
// sight, and returns a session token.
func (a *App) AuthSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.LineID = strings.TrimSpace(req.LineID)
	if req.LineID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "line_id required")
		return
	}

	user, err := a.Users.Sync(r.Context(), &domain.User{
		ID:          req.LineID,
		DisplayName: strings.TrimSpace(req.DisplayName),
		PictureURL:  strings.TrimSpace(req.PictureURL),
	})
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", req.LineID).Msg("user sync failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sync user")
		return
	}

	token, err := middleware.SignJWT(a.JWTSecret, middleware.TokenClaims{
		Sub:         user.ID,
		DisplayName: user.DisplayName,
		Locale:      middleware.LocaleFromContext(r.Context()),
		Exp:         time.Now().Add(24 * time.Hour).Unix(),
		Issuer:      "stickerline",
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign jwt failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}

	a.json(w, http.StatusOK, syncResponse{Token: token, User: toUserDTO(user)})
}

func toUserDTO(user *domain.User) userDTO {
	return userDTO{
		ID:            user.ID,
		DisplayName:   user.DisplayName,
		PictureURL:    user.PictureURL,
		CoinBalance:   user.CoinBalance,
		TotalSpentTHB: user.TotalSpentTHB,
		CanDownload:   user.CanDownload(),
	}
}
