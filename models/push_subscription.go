package models

import "time"

// PushSubscription is one browser installation's delivery channel. The
// endpoint is the identity key: re-subscribing the same channel replaces the
// stored keys rather than adding a row (browsers may rotate keys for the
// same endpoint).
type PushSubscription struct {
	Endpoint  string `gorm:"primaryKey"`
	P256dh    string
	Auth      string
	UserID    string `gorm:"index"` // empty when the owning identity is unknown
	UpdatedAt time.Time
}

type PushSubscriptions []PushSubscription
