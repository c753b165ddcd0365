package storage

import "context"

// Slot names for the persisted client state.
const (
	SlotCart            = "cart"            // JSON array of cart line items
	SlotAppliedDiscount = "appliedDiscount" // JSON object, absent when none applied
	SlotAuthToken       = "authToken"       // raw bearer token string
	SlotUserInfo        = "userInfo"        // JSON identity snapshot
)

// Adapter is durable slot-addressed key/value storage for serialized client
// state. Read distinguishes "absent" (ok=false, nil error) from "failed"
// (non-nil error) so callers can tell an empty slot from a broken backend.
type Adapter interface {
	Write(ctx context.Context, slot string, data []byte) error
	Read(ctx context.Context, slot string) (data []byte, ok bool, err error)
	Clear(ctx context.Context, slot string) error
}
