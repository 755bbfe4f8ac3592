package model

import (
	"time"
)

// SessionKey is a bearer credential that lets the backend act on behalf of a
// player without per-action approval. The secret is generated once at creation
// and never changes.
type SessionKey struct {
	Secret        string `db:"secret" json:"-"`
	PlayerAddress string `db:"player_address" json:"playerAddress"`
	// AccountAddress is the on-chain account bound to this key. It stays
	// "pending" until the account is provisioned.
	AccountAddress string    `db:"account_address" json:"address"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	ExpiresAt      time.Time `db:"expires_at" json:"expiresAt"`
	// Policies lists the world entrypoints this key may invoke, fixed at
	// issuance from the deployment policy table.
	Policies []string `db:"-" json:"policies"`
	Gasless  bool     `db:"gasless" json:"gasless"`
}

// Expired reports whether the key is past its expiry at the given instant.
func (k *SessionKey) Expired(now time.Time) bool {
	return !k.ExpiresAt.IsZero() && now.After(k.ExpiresAt)
}

// Allows reports whether the key's policy covers the given entrypoint.
func (k *SessionKey) Allows(entrypoint string) bool {
	for _, p := range k.Policies {
		if p == entrypoint {
			return true
		}
	}
	return false
}

// PresentedKey is a session key as presented by a client. A bare player
// address parses into a PresentedKey with an empty secret, which can never
// pass validation.
type PresentedKey struct {
	PlayerAddress string `json:"playerAddress"`
	Secret        string `json:"secret"`
}
