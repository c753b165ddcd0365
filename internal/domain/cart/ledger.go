package cart

// Variant is a concrete SKU/option of a product carrying its own price.
type Variant struct {
	ID    string `json:"id"`
	SKU   string `json:"sku,omitempty"`
	Price int64  `json:"price"`
}

// LineItem is one cart entry, identified by product and optional variant.
type LineItem struct {
	ProductID string   `json:"productId"`
	Variant   *Variant `json:"variant,omitempty"`
	Name      string   `json:"name"`
	Thumbnail string   `json:"thumbnail,omitempty"`
	Quantity  int      `json:"quantity"`
	Price     int64    `json:"price"`
	SubTotal  int64    `json:"subTotal"`
}

// Key identifies a line item. An item without a variant has an empty VariantID.
type Key struct {
	ProductID string
	VariantID string
}

// Key returns the identity key for the line item.
func (i LineItem) Key() Key {
	k := Key{ProductID: i.ProductID}
	if i.Variant != nil {
		k.VariantID = i.Variant.ID
	}
	return k
}

// Ledger holds the cart line items. It serializes to the JSON array shape the
// presentation layer and the persisted "cart" slot expect, so item order is
// kept stable (insertion order).
//
// All methods are plain state transitions with no side effects; persistence
// is the owner's responsibility.
type Ledger []LineItem

// find returns the index of the item with the given key, or -1.
func (l Ledger) find(key Key) int {
	for idx, item := range l {
		if item.Key() == key {
			return idx
		}
	}
	return -1
}

// Get returns a copy of the item with the given identity, if present.
func (l Ledger) Get(productID, variantID string) (LineItem, bool) {
	idx := l.find(Key{ProductID: productID, VariantID: variantID})
	if idx < 0 {
		return LineItem{}, false
	}
	return l[idx], true
}

// Add merges an item into the ledger. If a line with the same identity key
// exists its quantity is incremented, otherwise a new line is appended.
// A quantity below 1 counts as 1. SubTotal is recomputed either way.
func (l *Ledger) Add(item LineItem, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	if idx := l.find(item.Key()); idx >= 0 {
		existing := &(*l)[idx]
		existing.Quantity += quantity
		existing.SubTotal = existing.Price * int64(existing.Quantity)
		return
	}

	item.Quantity = quantity
	item.SubTotal = item.Price * int64(quantity)
	*l = append(*l, item)
}

// UpdateQuantity replaces the quantity of the matching item and recomputes its
// SubTotal. It reports whether anything changed: a missing item or a
// non-positive quantity leaves the ledger untouched.
func (l *Ledger) UpdateQuantity(productID, variantID string, quantity int) bool {
	if quantity < 1 {
		return false
	}
	idx := l.find(Key{ProductID: productID, VariantID: variantID})
	if idx < 0 {
		return false
	}
	item := &(*l)[idx]
	item.Quantity = quantity
	item.SubTotal = item.Price * int64(quantity)
	return true
}

// Remove deletes the matching item. It reports whether an item was removed.
func (l *Ledger) Remove(productID, variantID string) bool {
	idx := l.find(Key{ProductID: productID, VariantID: variantID})
	if idx < 0 {
		return false
	}
	*l = append((*l)[:idx], (*l)[idx+1:]...)
	return true
}

// Clear empties the ledger.
func (l *Ledger) Clear() {
	*l = Ledger{}
}

// Subtotal is the sum of all line SubTotals; 0 for an empty ledger.
func (l Ledger) Subtotal() int64 {
	var total int64
	for _, item := range l {
		total += item.SubTotal
	}
	return total
}

// TotalQuantity is the sum of all line quantities.
func (l Ledger) TotalQuantity() int {
	var total int
	for _, item := range l {
		total += item.Quantity
	}
	return total
}
