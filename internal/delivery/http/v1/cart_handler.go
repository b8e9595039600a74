package v1

import (
	"net/http"
	"time"

	"aetheria-backend/internal/cart"
	"aetheria-backend/internal/delivery/http/middleware"
	"aetheria-backend/internal/domain"
	"aetheria-backend/pkg/logger"
	"aetheria-backend/pkg/storage"
	"aetheria-backend/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartHandler exposes the cart engine over HTTP. It only ever calls the
// store's mutators and derived getters; the item list itself is never
// reached around the store.
type CartHandler struct {
	carts           *cart.Manager
	archive         storage.SnapshotArchive
	maxCartQuantity int
}

func NewCartHandler(carts *cart.Manager, archive storage.SnapshotArchive, maxCartQuantity int) *CartHandler {
	return &CartHandler{
		carts:           carts,
		archive:         archive,
		maxCartQuantity: maxCartQuantity,
	}
}

type cartResponse struct {
	Items    []domain.CartLineItem `json:"items"`
	Totals   domain.CartTotals     `json:"totals"`
	Degraded bool                  `json:"degraded,omitempty"`
}

func (h *CartHandler) respondCart(w http.ResponseWriter, s *cart.Store) {
	utils.WriteJSON(w, http.StatusOK, cartResponse{
		Items:    s.Items(),
		Totals:   s.Totals(),
		Degraded: s.Degraded(),
	})
}

func (h *CartHandler) session(w http.ResponseWriter, r *http.Request) (string, bool) {
	sid, ok := middleware.SessionID(r.Context())
	if !ok {
		// Session middleware always runs first; missing session is a wiring bug.
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return "", false
	}
	return sid, true
}

// GetCart returns the session's items and derived totals.
// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondCart(w, h.carts.Cart(r.Context(), sid))
}

type addItemReq struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image"`
	Size     string          `json:"size"`
	Color    string          `json:"color"`
}

// AddItem merges or appends a line item.
// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}

	var req addItemReq
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.ID == "" {
		utils.WriteError(w, http.StatusBadRequest, "Product ID required")
		return
	}
	if req.Price.IsNegative() {
		utils.WriteError(w, http.StatusBadRequest, "Price cannot be negative")
		return
	}
	if req.Quantity > h.maxCartQuantity {
		utils.WriteError(w, http.StatusBadRequest, "Quantity exceeds maximum limit")
		return
	}

	store := h.carts.Cart(r.Context(), sid)
	store.AddItem(r.Context(), domain.CartLineItem{
		ID:       req.ID,
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
		Image:    req.Image,
		Size:     req.Size,
		Color:    req.Color,
	})
	h.respondCart(w, store)
}

type updateQuantityReq struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// UpdateQuantity replaces the quantity on the product's lines. A quantity
// below 1 is deliberately a no-op rather than an error or a removal.
// PUT /api/v1/cart/items
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}

	var req updateQuantityReq
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.ID == "" {
		utils.WriteError(w, http.StatusBadRequest, "Product ID required")
		return
	}
	if req.Quantity > h.maxCartQuantity {
		utils.WriteError(w, http.StatusBadRequest, "Quantity exceeds maximum limit")
		return
	}

	store := h.carts.Cart(r.Context(), sid)
	store.UpdateQuantity(r.Context(), req.ID, req.Quantity)
	h.respondCart(w, store)
}

// RemoveItem removes every variant of the product from the cart.
// DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}

	productID := r.PathValue("productId")
	if productID == "" {
		utils.WriteError(w, http.StatusBadRequest, "Product ID required")
		return
	}

	store := h.carts.Cart(r.Context(), sid)
	store.RemoveItem(r.Context(), productID)
	h.respondCart(w, store)
}

type applyPromoReq struct {
	Code string `json:"code"`
}

// ApplyPromo applies a promo code against the current subtotal. An
// unrecognized code is not an error: the response simply carries a zero
// discount, same as the storefront always behaved.
// POST /api/v1/cart/promo
func (h *CartHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}

	var req applyPromoReq
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	store := h.carts.Cart(r.Context(), sid)
	store.ApplyPromoCode(r.Context(), req.Code)
	h.respondCart(w, store)
}

// ClearCart empties the cart and resets promo state.
// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}

	store := h.carts.Cart(r.Context(), sid)
	store.Clear(r.Context())
	h.respondCart(w, store)
}

type snapshotResponse struct {
	Snapshot   domain.CartSnapshot `json:"snapshot"`
	ArchiveURL string              `json:"archiveUrl,omitempty"`
}

// Snapshot produces the read-only checkout view of the cart, archives it,
// and clears the cart. Snapshotting an empty cart is a 409: there is nothing
// to hand to checkout.
// POST /api/v1/cart/snapshot
func (h *CartHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	sid, ok := h.session(w, r)
	if !ok {
		return
	}

	store := h.carts.Cart(r.Context(), sid)
	items := store.Items()
	if len(items) == 0 {
		utils.WriteError(w, http.StatusConflict, "Cart is empty")
		return
	}

	snapshot := domain.CartSnapshot{
		ID:        uuid.New().String(),
		SessionID: sid,
		Items:     items,
		Totals:    store.Totals(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		logger.WithContext(r.Context()).Error().Err(err).Msg("Snapshot marshal failed")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to build snapshot")
		return
	}

	archiveURL, err := h.archive.PutSnapshot(r.Context(), sid, payload)
	if err != nil {
		// The snapshot still goes back to the caller; only the archive copy
		// is missing.
		logger.WithContext(r.Context()).Warn().Err(err).Str("session_id", sid).Msg("Snapshot archive failed")
	}

	store.Clear(r.Context())

	utils.WriteJSON(w, http.StatusOK, snapshotResponse{
		Snapshot:   snapshot,
		ArchiveURL: archiveURL,
	})
}
