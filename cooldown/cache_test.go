package cooldown

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konturpay/kontur-go/apierror"
	"github.com/konturpay/kontur-go/storage"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(t *testing.T, store storage.Store) (*Cache, *fakeClock) {
	t.Helper()
	c := NewCache(store, nil)
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c.now = clock.now
	t.Cleanup(func() { _ = c.Clear(context.Background()) })
	return c, clock
}

func TestCache_TryIssueAfterRecordFails(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, storage.NewMemoryStore())

	require.NoError(t, c.TryIssue(ctx, "70000000001"))
	require.NoError(t, c.Record(ctx, "70000000001", 60))

	err := c.TryIssue(ctx, "70000000001")
	var ce *apierror.CooldownError
	require.ErrorAs(t, err, &ce)
	assert.InDelta(t, 60, ce.Remaining.Seconds(), 1)
}

func TestCache_CooldownExpiresByWallClock(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t, storage.NewMemoryStore())

	require.NoError(t, c.Record(ctx, "70000000001", 60))

	clock.advance(59 * time.Second)
	require.Error(t, c.TryIssue(ctx, "70000000001"))

	clock.advance(2 * time.Second)
	require.NoError(t, c.TryIssue(ctx, "70000000001"))
}

func TestCache_PhonesAreIndependent(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, storage.NewMemoryStore())

	require.NoError(t, c.Record(ctx, "70000000001", 60))

	require.Error(t, c.TryIssue(ctx, "70000000001"))
	require.NoError(t, c.TryIssue(ctx, "70000000002"))
}

func TestCache_RecordMergesInsteadOfOverwriting(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c, _ := newTestCache(t, store)

	require.NoError(t, c.Record(ctx, "70000000001", 60))
	require.NoError(t, c.Record(ctx, "70000000002", 90))

	raw, err := store.Get(ctx, SlotKey)
	require.NoError(t, err)
	var entries []Entry
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 2)
}

func TestCache_RecordReplacesEntryForSamePhone(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c, clock := newTestCache(t, store)

	require.NoError(t, c.Record(ctx, "70000000001", 60))
	clock.advance(30 * time.Second)
	require.NoError(t, c.Record(ctx, "70000000001", 60))

	raw, err := store.Get(ctx, SlotKey)
	require.NoError(t, err)
	var entries []Entry
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 1)

	err = c.TryIssue(ctx, "70000000001")
	var ce *apierror.CooldownError
	require.ErrorAs(t, err, &ce)
	assert.InDelta(t, 60, ce.Remaining.Seconds(), 1)
}

func TestCache_LedgerSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	first, _ := newTestCache(t, store)
	require.NoError(t, first.Record(ctx, "70000000001", 3600))
	require.NoError(t, first.Record(ctx, "70000000002", 3600))

	// "Restart": a fresh cache over the same store has no timers, only the
	// persisted ledger.
	second, _ := newTestCache(t, store)
	require.Error(t, second.TryIssue(ctx, "70000000001"))
	require.Error(t, second.TryIssue(ctx, "70000000002"))
	require.NoError(t, second.TryIssue(ctx, "70000000003"))
}

func TestCache_StaleEntriesExpireWithoutTimer(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	first, firstClock := newTestCache(t, store)
	require.NoError(t, first.Record(ctx, "70000000001", 60))

	// No timer survives a restart; expiry must come from the wall clock.
	second, secondClock := newTestCache(t, store)
	secondClock.t = firstClock.t.Add(61 * time.Second)
	require.NoError(t, second.TryIssue(ctx, "70000000001"))
}

func TestCache_MalformedLedgerDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, SlotKey, []byte("{not a ledger")))

	c, _ := newTestCache(t, store)
	require.NoError(t, c.TryIssue(ctx, "70000000001"))
	require.NoError(t, c.Record(ctx, "70000000001", 60))
}

func TestCache_ClearWipesEverything(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c, _ := newTestCache(t, store)

	require.NoError(t, c.Record(ctx, "70000000001", 60))
	require.NoError(t, c.Clear(ctx))

	require.NoError(t, c.TryIssue(ctx, "70000000001"))
	raw, err := store.Get(ctx, SlotKey)
	require.NoError(t, err)
	require.Nil(t, raw)
}

func TestCache_TimerCompactsLedger(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c := NewCache(store, nil) // real clock: the timer has to fire
	t.Cleanup(func() { _ = c.Clear(ctx) })

	require.NoError(t, c.Record(ctx, "70000000001", 0))

	require.Eventually(t, func() bool {
		raw, err := store.Get(ctx, SlotKey)
		if err != nil {
			return false
		}
		var entries []Entry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return false
		}
		return len(entries) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCache_ScenarioFromSpec(t *testing.T) {
	// tryIssue -> record 60s -> tryIssue fails with ~60s -> +61s -> tryIssue ok.
	ctx := context.Background()
	c, clock := newTestCache(t, storage.NewMemoryStore())

	require.NoError(t, c.TryIssue(ctx, "70000000001"))
	require.NoError(t, c.Record(ctx, "70000000001", 60))

	err := c.TryIssue(ctx, "70000000001")
	var ce *apierror.CooldownError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, float64(60), ce.Remaining.Seconds())

	clock.advance(61 * time.Second)
	require.NoError(t, c.TryIssue(ctx, "70000000001"))
}
