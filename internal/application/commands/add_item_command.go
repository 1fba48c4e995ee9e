package commands

import (
	"context"

	"github.com/bookvine/cart-service/internal/application/use_cases"
	"github.com/bookvine/cart-service/internal/domain/cart"
	domainErrors "github.com/bookvine/cart-service/internal/domain/errors"
	"github.com/bookvine/cart-service/internal/pkg/logger"
)

type AddItemCommand struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type AddItemResponse struct {
	Lines    []*cart.Line  `json:"lines"`
	Snapshot cart.Snapshot `json:"snapshot"`
}

type AddItemHandler struct {
	sessions *use_cases.SessionRegistry
	log      *logger.Logger
}

func NewAddItemHandler(sessions *use_cases.SessionRegistry, log *logger.Logger) *AddItemHandler {
	return &AddItemHandler{
		sessions: sessions,
		log:      log,
	}
}

func (h *AddItemHandler) Handle(ctx context.Context, sessionID string, cmd AddItemCommand) (*AddItemResponse, error) {
	if cmd.Quantity < 1 {
		return nil, domainErrors.ErrInvalidQuantity
	}

	sync, err := h.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if err := sync.AddItem(ctx, cmd.ProductID, cmd.Size, cmd.Quantity); err != nil {
		h.log.Warn("Add to cart rejected",
			"session_id", sessionID,
			"product_id", cmd.ProductID,
			"error", err,
		)
		return nil, err
	}

	return &AddItemResponse{
		Lines:    sync.Lines(),
		Snapshot: sync.Snapshot(),
	}, nil
}
