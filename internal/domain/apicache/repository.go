package apicache

import "context"

// Store is the durable key→(payload, timestamp) store the API client
// reads and writes. Implementations never assume in-process exclusivity.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, entry Entry) error
	// Clear wipes all entries unconditionally.
	Clear(ctx context.Context) error
	// DeleteExpired removes entries whose ExpiresAt has passed.
	DeleteExpired(ctx context.Context) error
}
