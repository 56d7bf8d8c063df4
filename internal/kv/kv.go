// Package kv defines the generic persisted key-value byte store backing the
// history log. Implementations live in subpackages.
package kv

import "context"

// Store is a named-blob store. Get returns ok=false for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}
