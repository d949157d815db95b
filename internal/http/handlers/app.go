// Package handlers holds the HTTP surface of the sticker service.
package handlers

import (
	"encoding/json"
	"net/http"

	"stickerline/internal/domain"
	"stickerline/internal/infra"
	"stickerline/internal/orchestrator"
	"stickerline/internal/storage"
)

// App bundles the dependencies every handler needs.
type App struct {
	Users  domain.UserRepository
	Jobs   domain.JobRepository
	Slots  domain.SlotRepository
	Orch   *orchestrator.Orchestrator
	Store  *storage.FileStore
	Signer *storage.URLSigner
	Logger *infra.Logger

	JWTSecret      string
	OmiseSecretKey string
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, errorResponse{Error: kind, Message: message})
}
