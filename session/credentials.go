package session

import (
	"context"
	"fmt"

	"github.com/konturpay/kontur-go/storage"
)

// credentialSlotKey is the storage slot the access token lives in. At most
// one credential is stored at a time.
const credentialSlotKey = "access_token"

// CredentialStore holds the opaque bearer token in durable storage. Pure
// get/set/clear semantics: no token shape validation, no expiry tracking;
// a stale token is only discovered through a failing request.
//
// It implements transport.TokenSource, so the pipeline reads the credential
// from the same place the session manager writes it.
type CredentialStore struct {
	store storage.Store
}

func NewCredentialStore(store storage.Store) *CredentialStore {
	return &CredentialStore{store: store}
}

// AccessToken returns the stored token, or "" when none is stored.
func (c *CredentialStore) AccessToken(ctx context.Context) (string, error) {
	raw, err := c.store.Get(ctx, credentialSlotKey)
	if err != nil {
		return "", fmt.Errorf("failed to read credential: %w", err)
	}
	return string(raw), nil
}

// Set overwrites the stored token.
func (c *CredentialStore) Set(ctx context.Context, token string) error {
	if err := c.store.Set(ctx, credentialSlotKey, []byte(token)); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Clear removes the stored token. Clearing an empty store is a no-op.
func (c *CredentialStore) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, credentialSlotKey); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}
