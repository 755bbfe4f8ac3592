// Package store holds issued session keys, one per player address.
package store

import (
	"context"

	"github.com/omarespejel/starknet-unity-clicker-demo/internal/model"
)

// SessionStore is the keyed credential store. Get returns nil when no key is
// stored for the player. PutIfAbsent atomically inserts the key unless one
// already exists for its player; it returns the stored key and whether the
// insert happened, so concurrent first-time creations converge on one record.
type SessionStore interface {
	Get(ctx context.Context, playerAddress string) (*model.SessionKey, error)
	PutIfAbsent(ctx context.Context, key *model.SessionKey) (*model.SessionKey, bool, error)
	Delete(ctx context.Context, playerAddress string) error
}
