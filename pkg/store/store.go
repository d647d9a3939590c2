// Package store keeps the results of tool calls, keyed by the fingerprint of
// the tool instance and its inputs, so deterministic tools are not re-run on
// the same inputs.
package store

import (
	"context"
	"time"
)

// ResultStore is a key-value store of tool results.
type ResultStore interface {
	// Get returns the stored result, and false if the key is not found.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put stores the result.
	Put(ctx context.Context, key, value string) error
	// Delete removes the result.
	Delete(ctx context.Context, key string) error
}

// Entry is a stored result
type Entry struct {
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}
