// Package cooldown implements the client-side throttle around requesting a
// phone verification code. A small ledger of phone -> cooldown entries is
// persisted as a whole in one storage slot; it is consulted before any
// network call so a still-cooling phone never triggers a redundant SMS.
//
// Expiry is decided by wall clock on every read. The per-entry timers only
// compact the persisted ledger; correctness never depends on them firing,
// so entries written by a previous process run expire correctly too.
package cooldown

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/konturpay/kontur-go/apierror"
	"github.com/konturpay/kontur-go/internal/logging"
	"github.com/konturpay/kontur-go/storage"
)

// SlotKey is the storage slot the ledger is persisted under.
const SlotKey = "phone_codes"

// Entry records that a verification code was sent to Phone and a new one
// must not be requested for Timeout seconds after IssuedAt.
type Entry struct {
	Phone    string    `json:"phone"`
	Timeout  int       `json:"timeout"`
	IssuedAt time.Time `json:"issuedAt"`
}

func (e Entry) expiresAt() time.Time {
	return e.IssuedAt.Add(time.Duration(e.Timeout) * time.Second)
}

// Cache is the cooldown ledger over a storage slot. All ledger writes are
// serialized by an internal lock: the update is read-modify-write and two
// in-flight records for different phones must not lose each other.
type Cache struct {
	store storage.Store
	log   logging.Logger

	// now is a test seam for the wall clock.
	now func() time.Time

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewCache(store storage.Store, log logging.Logger) *Cache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Cache{
		store:  store,
		log:    log,
		now:    time.Now,
		timers: make(map[string]*time.Timer),
	}
}

// TryIssue checks the ledger for an unexpired entry for phone. It fails with
// apierror.CooldownError carrying the remaining wait when one exists. It is
// a purely local guard and performs no network call.
func (c *Cache) TryIssue(ctx context.Context, phone string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.load(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Phone != phone {
			continue
		}
		if remaining := e.expiresAt().Sub(c.now()); remaining > 0 {
			return &apierror.CooldownError{Remaining: remaining}
		}
	}
	return nil
}

// Record merges an entry for phone into the ledger, persists it, and
// schedules a compaction of that entry once the cooldown elapses. An
// existing entry for the same phone is replaced.
func (c *Cache) Record(ctx context.Context, phone string, seconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.load(ctx)
	if err != nil {
		return err
	}

	now := c.now()
	merged := make([]Entry, 0, len(entries)+1)
	for _, e := range entries {
		// Drop the replaced entry and, while rewriting anyway, expired ones.
		if e.Phone == phone || !e.expiresAt().After(now) {
			continue
		}
		merged = append(merged, e)
	}
	merged = append(merged, Entry{Phone: phone, Timeout: seconds, IssuedAt: now})

	if err := c.save(ctx, merged); err != nil {
		return err
	}

	if t, ok := c.timers[phone]; ok {
		t.Stop()
	}
	c.timers[phone] = time.AfterFunc(time.Duration(seconds)*time.Second, func() {
		c.evict(phone)
	})
	return nil
}

// Clear wipes the whole ledger and cancels all compaction timers. Invoked on
// successful authentication; a fresh session needs no code throttling.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for phone, t := range c.timers {
		t.Stop()
		delete(c.timers, phone)
	}
	return c.store.Delete(ctx, SlotKey)
}

// evict removes the expired entry for phone from the persisted ledger.
// The ledger is re-read and expiry re-checked under the lock: the entry may
// have been replaced or cleared since the timer was armed.
func (c *Cache) evict(phone string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx := context.Background()
	delete(c.timers, phone)

	entries, err := c.load(ctx)
	if err != nil {
		c.log.Warn(ctx, "cooldown compaction skipped", "phone", phone, "err", err)
		return
	}

	now := c.now()
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Phone == phone && !e.expiresAt().After(now) {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == len(entries) {
		return
	}
	if err := c.save(ctx, kept); err != nil {
		c.log.Warn(ctx, "cooldown compaction failed", "phone", phone, "err", err)
	}
}

// load reads the persisted ledger. A missing slot yields an empty ledger; a
// malformed one degrades to empty as well instead of failing the caller.
func (c *Cache) load(ctx context.Context) ([]Entry, error) {
	raw, err := c.store.Get(ctx, SlotKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read cooldown ledger: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.log.Warn(ctx, "discarding malformed cooldown ledger", "err", err)
		return nil, nil
	}
	return entries, nil
}

func (c *Cache) save(ctx context.Context, entries []Entry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode cooldown ledger: %w", err)
	}
	if err := c.store.Set(ctx, SlotKey, raw); err != nil {
		return fmt.Errorf("failed to persist cooldown ledger: %w", err)
	}
	return nil
}
