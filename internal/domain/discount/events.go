package discount

import "time"

const (
	EventApplied = "DiscountApplied"
	EventCleared = "DiscountCleared"
)

type AppliedEvent struct {
	DiscountID string    `json:"discount_id"`
	Code       string    `json:"code"`
	Value      int64     `json:"value"`
	Subtotal   int64     `json:"subtotal"`
	AppliedAt  time.Time `json:"applied_at"`
}

type ClearedEvent struct {
	DiscountID string    `json:"discount_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	ClearedAt  time.Time `json:"cleared_at"`
}
