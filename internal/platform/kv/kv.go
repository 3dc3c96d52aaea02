// Package kv provides the string-keyed persistence port the domain stores
// are built on. Values are JSON documents serialized by the callers; the
// store itself knows nothing about their shape.
package kv

import "context"

// Store is the persistence port. Get reports whether the key exists; a
// missing key is not an error. SetMany writes all pairs atomically — restore
// depends on this to avoid partially overwritten installations.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, pairs map[string]string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
