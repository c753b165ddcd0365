package state

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/storefront-state/internal/domain/cart"
	"github.com/example/storefront-state/internal/domain/discount"
	"github.com/example/storefront-state/internal/infrastructure/storage"
	"github.com/example/storefront-state/internal/session"
)

// Wallet looks up a user's discount records. One round trip per apply attempt;
// definitions are never cached beyond the attempt.
type Wallet interface {
	UserDiscounts(ctx context.Context, userID string) ([]discount.Definition, error)
}

// Authenticator supplies the signed-in identity, if there is one.
type Authenticator interface {
	Identity() (session.Identity, bool)
}

// Emitter publishes activity events. Emission is best-effort: a publish
// failure never fails the mutation that produced it.
type Emitter interface {
	Publish(ctx context.Context, key string, event any) error
}

// Activity is the envelope activity events travel in.
type Activity struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Profile   string          `json:"profile"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// ApplyStatus is the terminal state of one coupon apply attempt.
type ApplyStatus string

const (
	StatusApplied    ApplyStatus = "applied"
	StatusRejected   ApplyStatus = "rejected"
	StatusSuperseded ApplyStatus = "superseded"
)

// ApplyResult reports the outcome of ApplyCoupon. Rejections live here, not
// in the error return: an invalid coupon is a result, not a failure.
type ApplyResult struct {
	Status  ApplyStatus           `json:"status"`
	Reason  discount.RejectReason `json:"reason,omitempty"`
	Applied *discount.Applied     `json:"applied,omitempty"`
}

// View is a read snapshot of the container for the presentation layer.
type View struct {
	Items    []cart.LineItem   `json:"items"`
	Subtotal int64             `json:"subtotal"`
	Quantity int               `json:"quantity"`
	Applied  *discount.Applied `json:"appliedDiscount,omitempty"`
	Total    int64             `json:"total"`
}

type Config struct {
	Storage storage.Adapter
	Wallet  Wallet
	Auth    Authenticator
	Emitter Emitter // optional
	Profile string
}

// Store is the owned state container for the cart and its applied discount.
// Every mutation goes through an action method; each action persists the
// slots it touched before returning. Mutations are serialized by a mutex so
// actions never interleave.
type Store struct {
	mu      sync.Mutex
	storage storage.Adapter
	wallet  Wallet
	auth    Authenticator
	emitter Emitter
	profile string

	ledger  cart.Ledger
	applied *discount.Applied
	// terms holds the definition the applied discount was matched against.
	// It is memory-only: after rehydration the persisted value snapshot
	// stands until the user re-applies or clears.
	terms *discount.Definition

	// applyGen discards stale in-flight wallet responses: only the
	// latest-issued apply attempt may commit its result.
	applyGen uint64
}

// New hydrates a state container from storage. Hydration happens exactly
// once, here; corrupt slot data degrades to the empty default with a logged
// warning.
func New(ctx context.Context, cfg Config) *Store {
	s := &Store{
		storage: cfg.Storage,
		wallet:  cfg.Wallet,
		auth:    cfg.Auth,
		emitter: cfg.Emitter,
		profile: cfg.Profile,
		ledger:  cart.Ledger{},
	}

	if data, ok, err := cfg.Storage.Read(ctx, storage.SlotCart); err != nil {
		log.Printf("[State] Failed to read cart slot: %v", err)
	} else if ok {
		if err := json.Unmarshal(data, &s.ledger); err != nil {
			log.Printf("[State] Corrupt cart slot, starting empty: %v", err)
			s.ledger = cart.Ledger{}
		}
	}

	if data, ok, err := cfg.Storage.Read(ctx, storage.SlotAppliedDiscount); err != nil {
		log.Printf("[State] Failed to read discount slot: %v", err)
	} else if ok {
		var applied discount.Applied
		if err := json.Unmarshal(data, &applied); err != nil {
			log.Printf("[State] Corrupt discount slot, dropping: %v", err)
		} else {
			s.applied = &applied
		}
	}

	return s
}

// AddItem merges an item into the cart.
func (s *Store) AddItem(ctx context.Context, item cart.LineItem, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.Add(item, quantity)
	s.persistCartLocked(ctx)
	s.reevaluateLocked(ctx)

	s.emit(ctx, cart.EventItemAdded, cart.ItemAdded{
		ProductID: item.ProductID,
		VariantID: variantID(item),
		Quantity:  quantity,
		Price:     item.Price,
		Subtotal:  s.ledger.Subtotal(),
		AddedAt:   time.Now(),
	})
}

// UpdateQuantity replaces a line item's quantity. A missing item or a
// non-positive quantity is a silent no-op, reported via the return value.
func (s *Store) UpdateQuantity(ctx context.Context, productID, variantID string, quantity int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ledger.UpdateQuantity(productID, variantID, quantity) {
		return false
	}
	s.persistCartLocked(ctx)
	s.reevaluateLocked(ctx)

	s.emit(ctx, cart.EventQuantityUpdated, cart.QuantityUpdated{
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
		Subtotal:  s.ledger.Subtotal(),
		UpdatedAt: time.Now(),
	})
	return true
}

// RemoveItem deletes a line item; a no-op if absent.
func (s *Store) RemoveItem(ctx context.Context, productID, variantID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ledger.Remove(productID, variantID) {
		return false
	}
	s.persistCartLocked(ctx)
	s.reevaluateLocked(ctx)

	s.emit(ctx, cart.EventItemRemoved, cart.ItemRemoved{
		ProductID: productID,
		VariantID: variantID,
		Subtotal:  s.ledger.Subtotal(),
		RemovedAt: time.Now(),
	})
	return true
}

// ClearCart empties the ledger and drops the applied discount; both slots are
// cleared in storage.
func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.Clear()
	s.applied = nil
	s.terms = nil

	if err := s.storage.Clear(ctx, storage.SlotCart); err != nil {
		log.Printf("[State] Failed to clear cart slot: %v", err)
	}
	if err := s.storage.Clear(ctx, storage.SlotAppliedDiscount); err != nil {
		log.Printf("[State] Failed to clear discount slot: %v", err)
	}

	s.emit(ctx, cart.EventCleared, cart.Cleared{ClearedAt: time.Now()})
}

// ClearDiscount drops the applied discount but leaves the cart alone. The
// session layer calls this on expiry acknowledgment.
func (s *Store) ClearDiscount(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearDiscountLocked(ctx, "cleared")
}

func (s *Store) clearDiscountLocked(ctx context.Context, reason string) {
	if s.applied == nil {
		s.terms = nil
		return
	}
	discountID := s.applied.DiscountID
	s.applied = nil
	s.terms = nil

	if err := s.storage.Clear(ctx, storage.SlotAppliedDiscount); err != nil {
		log.Printf("[State] Failed to clear discount slot: %v", err)
	}
	s.emit(ctx, discount.EventCleared, discount.ClearedEvent{
		DiscountID: discountID,
		Reason:     reason,
		ClearedAt:  time.Now(),
	})
}

// ApplyCoupon validates a code against the signed-in user's wallet and, on
// success, installs it as the cart's single applied discount. Validation
// failures come back as a rejected ApplyResult; only backend/transport
// problems surface as errors. A failed validation clears any discount that
// was applied before.
//
// Concurrent attempts are serialized by generation: a response that comes
// back after a newer attempt started is discarded, never written.
func (s *Store) ApplyCoupon(ctx context.Context, code string) (ApplyResult, error) {
	identity, authenticated := s.auth.Identity()
	if !authenticated {
		return ApplyResult{Status: StatusRejected, Reason: discount.RejectUnauthenticated}, nil
	}
	if discount.NormalizeCode(code) == "" {
		return ApplyResult{Status: StatusRejected, Reason: discount.RejectEmptyCode}, nil
	}

	s.mu.Lock()
	s.applyGen++
	gen := s.applyGen
	s.mu.Unlock()

	wallet, err := s.wallet.UserDiscounts(ctx, identity.ID)
	if err != nil {
		return ApplyResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.applyGen {
		return ApplyResult{Status: StatusSuperseded}, nil
	}

	matched, reason := discount.Match(wallet, code, time.Now())
	if reason != "" {
		s.clearDiscountLocked(ctx, string(reason))
		return ApplyResult{Status: StatusRejected, Reason: reason}, nil
	}

	subtotal := s.ledger.Subtotal()
	applied := discount.Applied{
		DiscountID: matched.ID,
		Code:       matched.Code,
		Value:      discount.Value(*matched, subtotal),
	}
	s.applied = &applied
	s.terms = matched
	s.persistDiscountLocked(ctx)

	s.emit(ctx, discount.EventApplied, discount.AppliedEvent{
		DiscountID: applied.DiscountID,
		Code:       applied.Code,
		Value:      applied.Value,
		Subtotal:   subtotal,
		AppliedAt:  time.Now(),
	})

	result := applied
	return ApplyResult{Status: StatusApplied, Applied: &result}, nil
}

// Snapshot returns a consistent read view.
func (s *Store) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]cart.LineItem, len(s.ledger))
	copy(items, s.ledger)

	view := View{
		Items:    items,
		Subtotal: s.ledger.Subtotal(),
		Quantity: s.ledger.TotalQuantity(),
	}
	view.Total = view.Subtotal
	if s.applied != nil {
		applied := *s.applied
		view.Applied = &applied
		view.Total -= applied.Value
		if view.Total < 0 {
			view.Total = 0
		}
	}
	return view
}

// EmitActivity publishes an out-of-band activity event (session expiry and
// the like) through the container's emitter.
func (s *Store) EmitActivity(ctx context.Context, eventType string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emit(ctx, eventType, payload)
}

// reevaluateLocked keeps the applied discount's value tracking the live
// subtotal while the matched terms are in hand.
func (s *Store) reevaluateLocked(ctx context.Context) {
	if s.applied == nil || s.terms == nil {
		return
	}
	value := discount.Value(*s.terms, s.ledger.Subtotal())
	if value == s.applied.Value {
		return
	}
	s.applied.Value = value
	s.persistDiscountLocked(ctx)
}

// persistCartLocked serializes the full ledger. A failed write is logged and
// swallowed; the in-memory mutation stands.
func (s *Store) persistCartLocked(ctx context.Context) {
	data, err := json.Marshal(s.ledger)
	if err != nil {
		log.Printf("[State] Failed to serialize cart: %v", err)
		return
	}
	if err := s.storage.Write(ctx, storage.SlotCart, data); err != nil {
		log.Printf("[State] Failed to persist cart: %v", err)
	}
}

func (s *Store) persistDiscountLocked(ctx context.Context) {
	data, err := json.Marshal(s.applied)
	if err != nil {
		log.Printf("[State] Failed to serialize discount: %v", err)
		return
	}
	if err := s.storage.Write(ctx, storage.SlotAppliedDiscount, data); err != nil {
		log.Printf("[State] Failed to persist discount: %v", err)
	}
}

func (s *Store) emit(ctx context.Context, eventType string, payload any) {
	if s.emitter == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[State] Failed to serialize %s activity: %v", eventType, err)
		return
	}
	activity := Activity{
		ID:        uuid.New().String(),
		Type:      eventType,
		Profile:   s.profile,
		Data:      data,
		Timestamp: time.Now(),
	}
	if err := s.emitter.Publish(ctx, s.profile, activity); err != nil {
		log.Printf("[State] Failed to publish %s activity: %v", eventType, err)
	}
}

func variantID(item cart.LineItem) string {
	if item.Variant == nil {
		return ""
	}
	return item.Variant.ID
}
