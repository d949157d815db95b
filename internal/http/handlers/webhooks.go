package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"

	"stickerline/internal/domain"
)

type omiseEvent struct {
	Key  string `json:"key"`
	Data struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Amount   int64  `json:"amount"`
		Metadata struct {
			UserID string `json:"user_id"`
		} `json:"metadata"`
	} `json:"data"`
}

// OmiseWebhook processes charge.complete events, crediting coin packages to
// the paying user. Responses stay 2xx for ignorable events so Omise stops
// retrying them.
func (a *App) OmiseWebhook(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get("X-Omise-Signature")
	if signature == "" {
		a.error(w, http.StatusForbidden, "forbidden", "missing signature")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable body")
		return
	}
	if !verifyOmiseSignature(a.OmiseSecretKey, body, signature) {
		a.Logger.Warn().Msg("omise webhook with invalid signature")
		a.error(w, http.StatusForbidden, "forbidden", "invalid signature")
		return
	}

	var event omiseEvent
	if err := json.Unmarshal(body, &event); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if event.Key != "charge.complete" || event.Data.Status != "successful" {
		a.json(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if event.Data.Metadata.UserID == "" {
		a.error(w, http.StatusForbidden, "forbidden", "user_id missing in metadata")
		return
	}

	thbAmount := float64(event.Data.Amount) / 100.0
	coins := coinsForAmount(thbAmount)

	if _, err := a.Users.TopUpCoins(r.Context(), event.Data.Metadata.UserID, coins, thbAmount, event.Data.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusForbidden, "forbidden", "unknown user")
			return
		}
		a.Logger.Error().
			Err(err).
			Str("charge_id", event.Data.ID).
			Str("user_id", event.Data.Metadata.UserID).
			Msg("top up failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to credit coins")
		return
	}

	a.Logger.Info().
		Str("charge_id", event.Data.ID).
		Str("user_id", event.Data.Metadata.UserID).
		Int("coins", coins).
		Float64("thb", thbAmount).
		Msg("omise charge credited")
	a.json(w, http.StatusOK, map[string]string{"status": "success"})
}

func verifyOmiseSignature(secret string, payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// coinsForAmount applies the coin packages: 70 THB buys 7 coins, 100 THB buys
// 12, anything else converts at 10 THB per coin.
func coinsForAmount(thb float64) int {
	switch {
	case math.Abs(thb-100.0) < 0.01:
		return 12
	case math.Abs(thb-70.0) < 0.01:
		return 7
	default:
		return int(thb / 10)
	}
}
