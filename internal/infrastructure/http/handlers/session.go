package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bookvine/cart-service/internal/application/commands"
	"github.com/bookvine/cart-service/internal/application/use_cases"
	"github.com/bookvine/cart-service/internal/infrastructure/http/response"
	"github.com/bookvine/cart-service/internal/pkg/logger"
)

type SessionHandler struct {
	sessions *use_cases.SessionRegistry
	login    *commands.LoginHandler
	log      *logger.Logger
}

func NewSessionHandler(
	sessions *use_cases.SessionRegistry,
	login *commands.LoginHandler,
	log *logger.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		login:    login,
		log:      log,
	}
}

type sessionCreatedView struct {
	SessionID string                 `json:"session_id"`
	State     use_cases.SessionState `json:"state"`
}

func (h *SessionHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id, sync := h.sessions.Create()
	response.WriteSuccess(w, sessionCreatedView{
		SessionID: id,
		State:     sync.State(),
	})
}

func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var cmd commands.LoginCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		response.WriteValidationError(w, "invalid request body", nil)
		return
	}
	if cmd.Token == "" {
		response.WriteValidationError(w, "validation failed", map[string]string{
			"token": "token is required",
		})
		return
	}

	result, err := h.login.Handle(r.Context(), r.Header.Get(sessionHeader), cmd)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteSuccess(w, result)
}

func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sync, err := h.sessions.Get(r.Header.Get(sessionHeader))
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	if err := sync.Logout(); err != nil {
		response.WriteDomainError(w, err)
		return
	}
	response.WriteSuccess(w, sessionCreatedView{
		SessionID: r.Header.Get(sessionHeader),
		State:     sync.State(),
	})
}
