package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/example/storefront-state/internal/domain/cart"
	"github.com/example/storefront-state/internal/session"
	"github.com/example/storefront-state/internal/state"
)

// Handlers exposes the state container to the presentation layer. It also
// owns the watchdog lifecycle: armed on login, disarmed on logout, so timers
// never leak across sessions.
type Handlers struct {
	state    *state.Store
	session  *session.Manager
	interval time.Duration

	mu       sync.Mutex
	watchdog *session.Watchdog
}

func NewHandlers(st *state.Store, sess *session.Manager, checkInterval time.Duration) *Handlers {
	return &Handlers{state: st, session: sess, interval: checkInterval}
}

// ArmWatchdog starts session polling for the current token. Called on login
// and once at boot when a persisted session was rehydrated.
func (h *Handlers) ArmWatchdog() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.watchdog != nil {
		h.watchdog.Stop()
	}
	h.watchdog = session.NewWatchdog(h.interval,
		func() (bool, bool) {
			token := h.session.Token()
			return token != "", h.session.Valid(time.Now())
		},
		h.onExpired,
	)
	return h.watchdog.Arm()
}

// DisarmWatchdog stops session polling.
func (h *Handlers) DisarmWatchdog() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watchdog != nil {
		h.watchdog.Stop()
		h.watchdog = nil
	}
}

func (h *Handlers) onExpired() {
	identity, _ := h.session.Identity()
	h.session.MarkExpired()
	h.state.EmitActivity(context.Background(), session.EventExpired, session.ExpiredEvent{
		UserID:    identity.ID,
		ExpiredAt: time.Now(),
	})
}

// Cart handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.state.Snapshot())
}

type addItemRequest struct {
	ProductID string        `json:"productId"`
	Variant   *cart.Variant `json:"variant,omitempty"`
	Name      string        `json:"name"`
	Thumbnail string        `json:"thumbnail,omitempty"`
	Quantity  int           `json:"quantity"`
	Price     int64         `json:"price"`
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ProductID == "" {
		respondError(w, "productId is required", http.StatusBadRequest)
		return
	}

	h.state.AddItem(r.Context(), cart.LineItem{
		ProductID: req.ProductID,
		Variant:   req.Variant,
		Name:      req.Name,
		Thumbnail: req.Thumbnail,
		Price:     req.Price,
	}, req.Quantity)

	respondJSON(w, http.StatusOK, h.state.Snapshot())
}

type updateQuantityRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// absent items and non-positive quantities are silent no-ops
	h.state.UpdateQuantity(r.Context(), req.ProductID, req.VariantID, req.Quantity)
	respondJSON(w, http.StatusOK, h.state.Snapshot())
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	productID := extractPathParam(r.URL.Path, "/cart/items/")
	variantID := r.URL.Query().Get("variantId")

	h.state.RemoveItem(r.Context(), productID, variantID)
	respondJSON(w, http.StatusOK, h.state.Snapshot())
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.state.ClearCart(r.Context())
	respondJSON(w, http.StatusOK, h.state.Snapshot())
}

// Discount handlers

type applyDiscountRequest struct {
	Code string `json:"code"`
}

func (h *Handlers) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var req applyDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.state.ApplyCoupon(r.Context(), req.Code)
	if err != nil {
		respondError(w, "discount lookup failed", http.StatusBadGateway)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) ClearDiscount(w http.ResponseWriter, r *http.Request) {
	h.state.ClearDiscount(r.Context())
	respondJSON(w, http.StatusOK, h.state.Snapshot())
}

// Session handlers

type sessionView struct {
	Authenticated bool              `json:"authenticated"`
	Expired       bool              `json:"expired"`
	Identity      *session.Identity `json:"identity,omitempty"`
}

func (h *Handlers) sessionView() sessionView {
	view := sessionView{
		Authenticated: h.session.Valid(time.Now()),
		Expired:       h.session.Expired(),
	}
	if identity, ok := h.session.Identity(); ok {
		view.Identity = &identity
	}
	return view
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.sessionView())
}

type loginRequest struct {
	Token string `json:"token"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.session.SetToken(r.Context(), req.Token); err != nil {
		respondError(w, "invalid token", http.StatusBadRequest)
		return
	}
	h.ArmWatchdog()
	respondJSON(w, http.StatusOK, h.sessionView())
}

// Logout ends the session. The default acknowledges an expiry: identity,
// token and applied discount go, the cart stays. With ?full=true the cart is
// cleared as well (explicit user logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.DisarmWatchdog()
	h.session.Logout(r.Context())
	h.state.ClearDiscount(r.Context())
	if strings.EqualFold(r.URL.Query().Get("full"), "true") {
		h.state.ClearCart(r.Context())
	}
	respondJSON(w, http.StatusOK, h.sessionView())
}

// helpers

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

func extractPathParam(path, prefix string) string {
	param := strings.TrimPrefix(path, prefix)
	if idx := strings.Index(param, "/"); idx >= 0 {
		param = param[:idx]
	}
	return param
}
