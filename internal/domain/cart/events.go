package cart

import "time"

const (
	EventItemAdded       = "CartItemAdded"
	EventQuantityUpdated = "CartQuantityUpdated"
	EventItemRemoved     = "CartItemRemoved"
	EventCleared         = "CartCleared"
)

type ItemAdded struct {
	ProductID string    `json:"product_id"`
	VariantID string    `json:"variant_id,omitempty"`
	Quantity  int       `json:"quantity"`
	Price     int64     `json:"price"`
	Subtotal  int64     `json:"subtotal"`
	AddedAt   time.Time `json:"added_at"`
}

type QuantityUpdated struct {
	ProductID string    `json:"product_id"`
	VariantID string    `json:"variant_id,omitempty"`
	Quantity  int       `json:"quantity"`
	Subtotal  int64     `json:"subtotal"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ItemRemoved struct {
	ProductID string    `json:"product_id"`
	VariantID string    `json:"variant_id,omitempty"`
	Subtotal  int64     `json:"subtotal"`
	RemovedAt time.Time `json:"removed_at"`
}

type Cleared struct {
	ClearedAt time.Time `json:"cleared_at"`
}
