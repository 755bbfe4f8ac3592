package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/omarespejel/starknet-unity-clicker-demo/internal/errors"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/model"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/service"
)

type GameHandler struct {
	sessionService  *service.SessionService
	dispatchService *service.DispatchService
}

func NewGameHandler(sessionService *service.SessionService, dispatchService *service.DispatchService) *GameHandler {
	return &GameHandler{
		sessionService:  sessionService,
		dispatchService: dispatchService,
	}
}

func (h *GameHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/click", h.Click)
	r.Post("/buy-upgrade", h.BuyUpgrade)

	return r
}

type actionRequest struct {
	SessionKey json.RawMessage `json:"sessionKey"`
}

// POST /click
func (h *GameHandler) Click(w http.ResponseWriter, r *http.Request) {
	h.dispatchAction(w, r, model.SystemClick, "Click executed successfully (gasless)")
}

// POST /buy-upgrade
func (h *GameHandler) BuyUpgrade(w http.ResponseWriter, r *http.Request) {
	h.dispatchAction(w, r, model.SystemBuyUpgrade, "Upgrade purchased successfully (gasless)")
}

// dispatchAction is the single path from an HTTP action to a chain call.
// Authorization happens here, before any dispatch; there is no other route
// into the dispatcher.
func (h *GameHandler) dispatchAction(w http.ResponseWriter, r *http.Request, system string, message string) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "must be JSON"))
		return
	}

	presented, err := parsePresentedKey(req.SessionKey)
	if err != nil {
		writeError(w, err)
		return
	}

	key, err := h.sessionService.Authorize(r.Context(), presented)
	if err != nil {
		log.Warn().Str("player", presented.PlayerAddress).Str("system", system).Msg("rejected unauthorized action")
		writeError(w, err)
		return
	}

	result, err := h.dispatchService.Dispatch(r.Context(), system, nil, key)
	if err != nil {
		log.Error().Err(err).Str("player", key.PlayerAddress).Str("system", system).Msg("dispatch failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"txHash":  result.TxHash,
		"gasless": result.Gasless,
		"status":  result.Status,
		"message": message,
	})
}
