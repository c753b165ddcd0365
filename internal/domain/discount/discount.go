package discount

import (
	"strings"
	"time"
)

// Definition is a discount record as the backend emits it. The client treats
// it as read-only: the server owns the money-relevant rules and re-validates
// them at checkout.
type Definition struct {
	ID                string     `json:"id"`
	Code              string     `json:"code"`
	Percentage        int        `json:"percentage"`
	MaxDiscountAmount int64      `json:"maxDiscountAmount"`
	StartDate         *time.Time `json:"startDate,omitempty"`
	EndDate           *time.Time `json:"endDate,omitempty"`
	UsedDate          *time.Time `json:"usedDate,omitempty"`
	Active            bool       `json:"active"`
}

// Applied is the single discount currently attached to the cart. Value is a
// snapshot against the subtotal it was computed from; the owner recomputes it
// whenever the subtotal moves while the definition terms are still in hand.
type Applied struct {
	DiscountID string `json:"id"`
	Code       string `json:"code"`
	Value      int64  `json:"value"`
}

// RejectReason classifies why a coupon apply attempt failed. Rejections are
// results, not errors: they are reported to the caller, never thrown.
type RejectReason string

const (
	RejectEmptyCode         RejectReason = "empty-code"
	RejectUnauthenticated   RejectReason = "unauthenticated"
	RejectNotFound          RejectReason = "not-found"
	RejectExpiredOrInactive RejectReason = "expired-or-inactive"
	RejectAlreadyUsed       RejectReason = "already-used"
)

// NormalizeCode canonicalizes user input for matching. Codes compare
// case-insensitively.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// inWindow reports whether now falls inside the definition's validity window.
// An absent bound is unbounded on that side.
func (d Definition) inWindow(now time.Time) bool {
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	return true
}

// Redeemable reports whether the definition passes every validation predicate
// except code matching: active, inside its window, and not already consumed.
func (d Definition) Redeemable(now time.Time) bool {
	return d.Active && d.inWindow(now) && d.UsedDate == nil
}

// Match looks a code up in a user's wallet and classifies the outcome.
// A nil Definition comes with the reason the attempt was rejected.
func Match(wallet []Definition, code string, now time.Time) (*Definition, RejectReason) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, RejectEmptyCode
	}

	var found *Definition
	for idx := range wallet {
		if NormalizeCode(wallet[idx].Code) == normalized {
			found = &wallet[idx]
			break
		}
	}
	if found == nil {
		return nil, RejectNotFound
	}

	if !found.Active || !found.inWindow(now) {
		return nil, RejectExpiredOrInactive
	}
	if found.UsedDate != nil {
		return nil, RejectAlreadyUsed
	}

	d := *found
	return &d, ""
}

// Value computes the monetary discount for a subtotal:
// min(subtotal*percentage/100, maxDiscountAmount), never negative.
func Value(d Definition, subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	value := subtotal * int64(d.Percentage) / 100
	if value > d.MaxDiscountAmount {
		value = d.MaxDiscountAmount
	}
	if value < 0 {
		return 0
	}
	return value
}
