package models

import (
	"encoding/json"
	"time"
)

// Connection is a third-party integration credential, unique per
// (user, provider) and removed together with the user.
type Connection struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	Provider       string          `json:"provider"`
	ProviderUserID string          `json:"provider_user_id"`
	AccessToken    string          `json:"-"`
	RefreshToken   string          `json:"-"`
	ExpiresAt      time.Time       `json:"expires_at"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
