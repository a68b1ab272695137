package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konturpay/kontur-go/apierror"
	"github.com/konturpay/kontur-go/cooldown"
	"github.com/konturpay/kontur-go/storage"
	"github.com/konturpay/kontur-go/transport"
	"github.com/konturpay/kontur-go/types"
)

// fakeBackend is an httptest implementation of the auth resource area.
type fakeBackend struct {
	srv *httptest.Server

	issuedToken string // token to hand out on credential exchange
	user        *types.Client

	resolveNull bool // probe answers null even with a valid token
	probeStatus int  // non-zero: probe answers this status instead

	getCodeCalls atomic.Int32
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	email := "ivan@example.com"
	b := &fakeBackend{
		issuedToken: mintToken(t, 42),
		user: &types.Client{
			ID:        42,
			FirstName: "Ivan",
			LastName:  "Petrov",
			Phone:     "70000000001",
			Email:     &email,
			Card:      "4276000011112222",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /client/auth/get-code", func(w http.ResponseWriter, r *http.Request) {
		b.getCodeCalls.Add(1)
		_, _ = w.Write([]byte(`60`))
	})
	mux.HandleFunc("POST /client/auth/use-code", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Phone, Code string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Code != "1234" {
			_, _ = w.Write([]byte(`{"error":"ERROR_INVALID_CODE"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": b.issuedToken})
	})
	mux.HandleFunc("POST /client/auth", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			_, _ = w.Write([]byte(`{"error":"ERROR_INVALID_PASSWORD"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": b.issuedToken})
	})
	mux.HandleFunc("GET /client/auth/", func(w http.ResponseWriter, r *http.Request) {
		if b.probeStatus != 0 {
			w.WriteHeader(b.probeStatus)
			return
		}
		auth := r.Header.Get("Authorization")
		if b.resolveNull || auth != "Bearer "+b.issuedToken {
			_, _ = w.Write([]byte(`null`))
			return
		}
		_ = json.NewEncoder(w).Encode(b.user)
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func mintToken(t *testing.T, clientID int64) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": clientID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return signed
}

type fixture struct {
	backend   *fakeBackend
	manager   *Manager
	creds     *CredentialStore
	store     *storage.MemoryStore
	cooldowns *cooldown.Cache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	backend := newFakeBackend(t)
	store := storage.NewMemoryStore()
	creds := NewCredentialStore(store)
	cooldowns := cooldown.NewCache(store, nil)
	t.Cleanup(func() { _ = cooldowns.Clear(context.Background()) })

	pipeline := transport.NewPipeline(backend.srv.URL, creds, nil, nil)
	return &fixture{
		backend:   backend,
		manager:   NewManager(pipeline, creds, cooldowns, nil),
		creds:     creds,
		store:     store,
		cooldowns: cooldowns,
	}
}

func TestManager_SubmitCodeAuthenticates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var notified *types.Client
	f.manager.OnAuthenticated(func(u *types.Client) { notified = u })

	user, err := f.manager.SubmitCode(ctx, "70000000001", "1234")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, StateAuthenticated, f.manager.State())

	token, err := f.creds.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.backend.issuedToken, token)

	require.NotNil(t, notified)
	assert.Equal(t, user.ID, notified.ID)
}

func TestManager_SubmitCodeInvalidCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.manager.SubmitCode(ctx, "70000000001", "0000")
	var ae *apierror.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "ERROR_INVALID_CODE", ae.Code)
	assert.Equal(t, StateAnonymous, f.manager.State())
}

func TestManager_NullIdentityStaysAnonymous(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.backend.resolveNull = true

	fired := false
	f.manager.OnAuthenticated(func(*types.Client) { fired = true })

	user, err := f.manager.SubmitCode(ctx, "70000000001", "1234")
	require.NoError(t, err) // recovered locally, not propagated
	require.Nil(t, user)
	assert.Equal(t, StateAnonymous, f.manager.State())
	assert.False(t, fired)

	// The unconfirmed credential was rolled back.
	token, err := f.creds.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestManager_ProbeFailureRollsBackCredential(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.backend.probeStatus = http.StatusBadGateway

	_, err := f.manager.SubmitCode(ctx, "70000000001", "1234")
	var pe *apierror.ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusBadGateway, pe.StatusCode)
	assert.Equal(t, StateAnonymous, f.manager.State())

	token, err := f.creds.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestManager_PasswordLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.manager.PasswordLogin(ctx, "ivan", "secret")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, StateAuthenticated, f.manager.State())
}

func TestManager_RequestCodeRecordsCooldown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	d, err := f.manager.RequestCode(ctx, "70000000001")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)
	assert.EqualValues(t, 1, f.backend.getCodeCalls.Load())

	// Second request is rejected locally; the server is not contacted.
	_, err = f.manager.RequestCode(ctx, "70000000001")
	var ce *apierror.CooldownError
	require.ErrorAs(t, err, &ce)
	assert.EqualValues(t, 1, f.backend.getCodeCalls.Load())
}

func TestManager_AuthenticationClearsCooldowns(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.manager.RequestCode(ctx, "70000000001")
	require.NoError(t, err)

	_, err = f.manager.SubmitCode(ctx, "70000000001", "1234")
	require.NoError(t, err)

	// The freshly authenticated session needs no code throttling anymore.
	require.NoError(t, f.cooldowns.TryIssue(ctx, "70000000001"))
}

func TestManager_LogoutKeepsCooldowns(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.manager.RequestCode(ctx, "70000000001")
	require.NoError(t, err)
	require.NoError(t, f.manager.Logout(ctx))

	// Cooldowns are per-phone, not per-identity.
	var ce *apierror.CooldownError
	require.ErrorAs(t, f.cooldowns.TryIssue(ctx, "70000000001"), &ce)
}

func TestManager_LogoutClearsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.manager.SubmitCode(ctx, "70000000001", "1234")
	require.NoError(t, err)

	fired := false
	f.manager.OnLoggedOut(func() { fired = true })

	require.NoError(t, f.manager.Logout(ctx))
	assert.Equal(t, StateAnonymous, f.manager.State())
	assert.True(t, fired)

	user, err := f.manager.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestManager_CurrentUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("anonymous without probe", func(t *testing.T) {
		user, err := f.manager.CurrentUser(ctx)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("authenticated", func(t *testing.T) {
		_, err := f.manager.SubmitCode(ctx, "70000000001", "1234")
		require.NoError(t, err)

		user, err := f.manager.CurrentUser(ctx)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, int64(42), user.ID)
	})

	t.Run("stale token resolves nobody", func(t *testing.T) {
		require.NoError(t, f.creds.Set(ctx, "revoked-token"))

		user, err := f.manager.CurrentUser(ctx)
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}

func TestManager_RequireUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("anonymous", func(t *testing.T) {
		_, err := f.manager.RequireUser(ctx)
		require.ErrorIs(t, err, apierror.ErrNotAuthenticated)
	})

	t.Run("authenticated", func(t *testing.T) {
		_, err := f.manager.SubmitCode(ctx, "70000000001", "1234")
		require.NoError(t, err)

		user, err := f.manager.RequireUser(ctx)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, int64(42), user.ID)
	})
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "anonymous", StateAnonymous.String())
	assert.Equal(t, "authenticating", StateAuthenticating.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
}
