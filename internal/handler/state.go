package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/omarespejel/starknet-unity-clicker-demo/internal/errors"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/service"
)

type StateHandler struct {
	stateService *service.StateService
}

func NewStateHandler(stateService *service.StateService) *StateHandler {
	return &StateHandler{
		stateService: stateService,
	}
}

func (h *StateHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/game-state", h.GetState)

	return r
}

// GET /game-state?player=0x...
func (h *StateHandler) GetState(w http.ResponseWriter, r *http.Request) {
	player := r.URL.Query().Get("player")
	if player == "" {
		writeError(w, apperrors.MissingRequired("player"))
		return
	}

	state := h.stateService.GetPlayerState(r.Context(), player)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"player":  player,
		"state":   state,
	})
}
