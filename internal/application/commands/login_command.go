package commands

import (
	"context"
	"errors"

	"github.com/bookvine/cart-service/internal/application/use_cases"
	domainErrors "github.com/bookvine/cart-service/internal/domain/errors"
	"github.com/bookvine/cart-service/internal/pkg/logger"
)

type LoginCommand struct {
	Token string `json:"token"`
}

type LoginResponse struct {
	State use_cases.SessionState `json:"state"`
}

// LoginHandler drives the guest-to-authenticated transition. A
// duplicate login event (re-fired by a client re-render) resolves to
// the session's current state instead of failing the request; the
// merge guard inside the synchronizer already made the transition
// idempotent.
type LoginHandler struct {
	sessions *use_cases.SessionRegistry
	log      *logger.Logger
}

func NewLoginHandler(sessions *use_cases.SessionRegistry, log *logger.Logger) *LoginHandler {
	return &LoginHandler{
		sessions: sessions,
		log:      log,
	}
}

func (h *LoginHandler) Handle(ctx context.Context, sessionID string, cmd LoginCommand) (*LoginResponse, error) {
	if cmd.Token == "" {
		return nil, errors.New("token is required")
	}

	sync, err := h.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if err := sync.Login(ctx, cmd.Token); err != nil {
		if errors.Is(err, domainErrors.ErrAlreadyAuthenticated) {
			sync.EnsureSynced(ctx)
			return &LoginResponse{State: sync.State()}, nil
		}
		return nil, err
	}

	h.log.Info("Session authenticated", "session_id", sessionID)
	return &LoginResponse{State: sync.State()}, nil
}
