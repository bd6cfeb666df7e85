// Package storage provides the persistent key–value capability the session
// layer keeps credentials in. Only two keys are ever written: authToken and
// userId (see common.CredentialKeys).
//
// Every mutation is atomic from the caller's point of view: a reader observes
// either the previous or the new value of a key, and Remove of several keys
// happens as one unit.
package storage

import "context"

// Store is a string key–value store.
//
// Get returns "" with a nil error when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}
