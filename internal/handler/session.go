package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/omarespejel/starknet-unity-clicker-demo/internal/errors"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/create-session-key", h.Create)

	return r
}

type createSessionRequest struct {
	Player string `json:"player"`
}

type sessionKeyResponse struct {
	Secret        string    `json:"secret"`
	Address       string    `json:"address"`
	PlayerAddress string    `json:"playerAddress"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
	Policies      []string  `json:"policies"`
	Gasless       bool      `json:"gasless"`
}

// POST /create-session-key
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "must be JSON"))
		return
	}
	if req.Player == "" {
		writeError(w, apperrors.MissingRequired("player"))
		return
	}

	key, err := h.sessionService.CreateOrGet(r.Context(), req.Player)
	if err != nil {
		log.Error().Err(err).Str("player", req.Player).Msg("failed to create session key")
		writeError(w, err)
		return
	}

	// The secret is echoed here and nowhere else: the client needs it once to
	// present the key on later calls.
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"sessionKey": sessionKeyResponse{
			Secret:        key.Secret,
			Address:       key.AccountAddress,
			PlayerAddress: key.PlayerAddress,
			CreatedAt:     key.CreatedAt,
			ExpiresAt:     key.ExpiresAt,
			Policies:      key.Policies,
			Gasless:       key.Gasless,
		},
	})
}
