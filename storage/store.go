// Package storage defines the durable keyed storage the SDK keeps its two
// persistent slots in: the access token and the verification-code cooldown
// ledger. The Store port deliberately has no business logic; consumers must
// tolerate absent slots (first run) and treat malformed contents as empty.
//
// Adapters: MemoryStore for tests and throwaway sessions, FileStore for
// desktop/CLI hosts, SQLiteStore for hosts that already carry a local
// database, RedisStore for the SDK embedded in a backend process.
package storage

import "context"

// Store is a string-keyed slot store. Get returns (nil, nil) when the key
// is absent; an absent key is a normal state, not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
