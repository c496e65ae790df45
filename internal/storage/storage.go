// Package storage persists application state as string values under fixed keys.
package storage

import (
	"context"
	"errors"
)

// Keys under which the session is stored. Pantry is stored as raw text; every
// other value is JSON.
const (
	KeyProfile      = "userProfile"
	KeyFavorites    = "favorites"
	KeyWeeklyPlan   = "weeklyPlan"
	KeyShoppingList = "shoppingList"
	KeyPantry       = "pantryItems"
)

// ErrInvalidKey is returned for keys that cannot be stored safely.
var ErrInvalidKey = errors.New("invalid storage key")

// Store is a string key/value store. Writes are last-write-wins per key with
// no cross-key transactions.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}
