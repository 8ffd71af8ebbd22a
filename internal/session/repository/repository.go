package repository

import "context"

// Repository is durable client-side key-value storage for session state.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns the value stored under key, or (nil, nil) if there is none.
	// It returns an error only for backend failures, not for missing keys.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key, replacing any existing value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
