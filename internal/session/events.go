package session

import "time"

const EventExpired = "SessionExpired"

type ExpiredEvent struct {
	UserID    string    `json:"user_id,omitempty"`
	ExpiredAt time.Time `json:"expired_at"`
}
