package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/bookvine/cart-service/internal/application/commands"
	"github.com/bookvine/cart-service/internal/application/use_cases"
	"github.com/bookvine/cart-service/internal/domain/cart"
	"github.com/bookvine/cart-service/internal/infrastructure/http/response"
	"github.com/bookvine/cart-service/internal/pkg/logger"
)

const sessionHeader = "X-Session-ID"

type CartHandler struct {
	sessions *use_cases.SessionRegistry
	addItem  *commands.AddItemHandler
	log      *logger.Logger
}

func NewCartHandler(
	sessions *use_cases.SessionRegistry,
	addItem *commands.AddItemHandler,
	log *logger.Logger,
) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		addItem:  addItem,
		log:      log,
	}
}

type lineView struct {
	ProductID         string          `json:"product_id"`
	Size              string          `json:"size"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	AvailableQuantity int             `json:"available_quantity"`
	Discount          decimal.Decimal `json:"discount"`
}

type cartView struct {
	State    use_cases.SessionState `json:"state"`
	Lines    []lineView             `json:"lines"`
	Snapshot cart.Snapshot          `json:"snapshot"`
	Notices  []use_cases.Notice     `json:"notices,omitempty"`
}

func (h *CartHandler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sync, err := h.sessions.Get(r.Header.Get(sessionHeader))
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	// A fetch that failed at login is retried on every cart read
	// until it succeeds.
	sync.EnsureSynced(r.Context())

	response.WriteSuccess(w, cartView{
		State:    sync.State(),
		Lines:    toLineViews(sync.Lines()),
		Snapshot: sync.Snapshot(),
		Notices:  sync.DrainNotices(),
	})
}

func (h *CartHandler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var cmd commands.AddItemCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		response.WriteValidationError(w, "invalid request body", nil)
		return
	}
	if cmd.ProductID == "" {
		response.WriteValidationError(w, "validation failed", map[string]string{
			"product_id": "product_id is required",
		})
		return
	}

	result, err := h.addItem.Handle(r.Context(), r.Header.Get(sessionHeader), cmd)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteSuccess(w, cartView{
		Lines:    toLineViews(result.Lines),
		Snapshot: result.Snapshot,
	})
}

func (h *CartHandler) HandleIncrement(w http.ResponseWriter, r *http.Request) {
	h.handleLineMutation(w, r, func(sync *use_cases.CartSyncUseCase, key cart.LineKey) error {
		return sync.Increment(r.Context(), key)
	})
}

func (h *CartHandler) HandleDecrement(w http.ResponseWriter, r *http.Request) {
	h.handleLineMutation(w, r, func(sync *use_cases.CartSyncUseCase, key cart.LineKey) error {
		return sync.Decrement(r.Context(), key)
	})
}

func (h *CartHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	h.handleLineMutation(w, r, func(sync *use_cases.CartSyncUseCase, key cart.LineKey) error {
		return sync.RemoveLine(r.Context(), key)
	})
}

func (h *CartHandler) handleLineMutation(
	w http.ResponseWriter,
	r *http.Request,
	mutate func(sync *use_cases.CartSyncUseCase, key cart.LineKey) error,
) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		response.WriteValidationError(w, "validation failed", map[string]string{
			"product_id": "product_id is required",
		})
		return
	}
	key := cart.LineKey{
		ProductID: productID,
		Size:      r.URL.Query().Get("size"),
	}

	sync, err := h.sessions.Get(r.Header.Get(sessionHeader))
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	if err := mutate(sync, key); err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteSuccess(w, cartView{
		State:    sync.State(),
		Lines:    toLineViews(sync.Lines()),
		Snapshot: sync.Snapshot(),
		Notices:  sync.DrainNotices(),
	})
}

func toLineViews(lines []*cart.Line) []lineView {
	views := make([]lineView, 0, len(lines))
	for _, l := range lines {
		views = append(views, lineView{
			ProductID:         l.ProductID,
			Size:              l.Size,
			Quantity:          l.Quantity,
			UnitPrice:         l.UnitPrice,
			AvailableQuantity: l.AvailableQuantity,
			Discount:          l.Discount,
		})
	}
	return views
}
