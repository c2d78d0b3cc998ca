package models

import "time"

// RefreshToken is the server-side record of an issued refresh token.
// The opaque token handed to the client is "selector.verifier"; only the
// selector and a sha256 hash of the verifier are persisted.
type RefreshToken struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Selector     string    `json:"selector"`
	VerifierHash string    `json:"verifier_hash"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}
