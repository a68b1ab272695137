// Package session orchestrates the authentication lifecycle: requesting and
// submitting verification codes, password login, the identity probe, logout,
// and the credential that ties them together. Lifecycle listeners let the
// event channel follow authentication state without the manager knowing
// about websockets.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/konturpay/kontur-go/apierror"
	"github.com/konturpay/kontur-go/cooldown"
	"github.com/konturpay/kontur-go/internal/logging"
	"github.com/konturpay/kontur-go/types"
)

// State is the session state machine position.
type State int

const (
	// StateAnonymous: no confirmed identity.
	StateAnonymous State = iota
	// StateAuthenticating: a credential exchange is in flight.
	StateAuthenticating
	// StateAuthenticated: a credential is stored and the identity probe
	// resolved a user.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Requester is the slice of the request pipeline the manager needs.
type Requester interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body any, out any) error
}

// basePath is the auth resource area of the kontur-client API.
const basePath = "/client/auth"

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// Manager owns session transitions. Transitions are serialized by a single
// lock, so a Logout arriving while SubmitCode is still in flight queues
// instead of interleaving with the channel open/close notifications.
//
// Lifecycle listeners run while the transition lock is held and must not
// call back into the Manager.
type Manager struct {
	api       Requester
	creds     *CredentialStore
	cooldowns *cooldown.Cache
	log       logging.Logger

	mu    sync.Mutex
	state State
	user  *types.Client

	onAuthenticated []func(user *types.Client)
	onLoggedOut     []func()
}

func NewManager(api Requester, creds *CredentialStore, cooldowns *cooldown.Cache, log logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Manager{
		api:       api,
		creds:     creds,
		cooldowns: cooldowns,
		log:       log,
		state:     StateAnonymous,
	}
}

// OnAuthenticated registers a listener invoked after every transition into
// the authenticated state. Register listeners before starting any flows.
func (m *Manager) OnAuthenticated(fn func(user *types.Client)) {
	m.onAuthenticated = append(m.onAuthenticated, fn)
}

// OnLoggedOut registers a listener invoked after every transition into the
// anonymous state.
func (m *Manager) OnLoggedOut(fn func()) {
	m.onLoggedOut = append(m.onLoggedOut, fn)
}

// State returns the current state machine position.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// RequestCode asks the server to send a verification code to phone and
// returns the cooldown before the next code may be requested. The local
// cooldown ledger is consulted first: while a previous request for the same
// phone is still cooling down, the server is not contacted at all and the
// call fails with apierror.CooldownError.
func (m *Manager) RequestCode(ctx context.Context, phone string) (time.Duration, error) {
	if err := m.cooldowns.TryIssue(ctx, phone); err != nil {
		return 0, err
	}

	var timeout int
	if err := m.api.Post(ctx, basePath+"/get-code", map[string]string{"phone": phone}, &timeout); err != nil {
		return 0, err
	}

	if err := m.cooldowns.Record(ctx, phone, timeout); err != nil {
		return 0, fmt.Errorf("code sent but cooldown not recorded: %w", err)
	}
	m.log.Info(ctx, "verification code requested", "phone", phone, "cooldown_s", timeout)
	return time.Duration(timeout) * time.Second, nil
}

// SubmitCode exchanges a verification code for a credential and resolves the
// identity. On success the session becomes authenticated and the cooldown
// ledger is wiped. A credential exchange that resolves to no identity is not
// an error: the session simply stays anonymous and (nil, nil) is returned.
func (m *Manager) SubmitCode(ctx context.Context, phone, code string) (*types.Client, error) {
	body := map[string]string{"phone": phone, "code": code}
	return m.exchange(ctx, basePath+"/use-code", body)
}

// PasswordLogin authenticates with username and password instead of a
// phone code. The rest of the flow is identical to SubmitCode.
func (m *Manager) PasswordLogin(ctx context.Context, username, password string) (*types.Client, error) {
	body := map[string]string{"username": username, "password": password}
	return m.exchange(ctx, basePath, body)
}

// exchange runs one credential exchange transition: obtain a token, persist
// it, then probe the identity with the new token attached. If the probe
// fails, or resolves no user, the just-stored credential is rolled back so
// no orphaned token is retained for an unconfirmed identity.
func (m *Manager) exchange(ctx context.Context, path string, body any) (*types.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = StateAuthenticating

	var tokenResp accessTokenResponse
	if err := m.api.Post(ctx, path, body, &tokenResp); err != nil {
		m.state = StateAnonymous
		return nil, err
	}

	// Persisted before the probe so the probe request carries the new
	// credential.
	if err := m.creds.Set(ctx, tokenResp.AccessToken); err != nil {
		m.state = StateAnonymous
		return nil, err
	}

	user, err := m.probe(ctx)
	if err != nil {
		m.rollback(ctx)
		return nil, err
	}
	if user == nil {
		m.log.Warn(ctx, "credential issued but identity unresolved, staying anonymous")
		m.rollback(ctx)
		return nil, nil
	}

	m.state = StateAuthenticated
	m.user = user

	if err := m.cooldowns.Clear(ctx); err != nil {
		m.log.Warn(ctx, "cooldown ledger not cleared after login", "err", err)
	}

	m.log.Info(ctx, "session authenticated", "client_id", user.ID)
	for _, fn := range m.onAuthenticated {
		fn(user)
	}
	return user, nil
}

// Logout clears the credential and returns the session to anonymous.
// Cooldown entries are left alone: they throttle per-phone code delivery and
// are unrelated to the departing identity.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.creds.Clear(ctx); err != nil {
		return err
	}
	m.state = StateAnonymous
	m.user = nil

	m.log.Info(ctx, "session logged out")
	for _, fn := range m.onLoggedOut {
		fn()
	}
	return nil
}

// CurrentUser performs a fresh identity probe and returns the resolved user,
// or (nil, nil) when there is none. Absence of identity is a normal outcome:
// no credential stored, or a stale credential the server no longer resolves.
func (m *Manager) CurrentUser(ctx context.Context) (*types.Client, error) {
	token, err := m.creds.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	// A token is necessary but not sufficient; without one the probe cannot
	// possibly resolve anybody.
	if token == "" {
		return nil, nil
	}
	return m.probe(ctx)
}

// RequireUser is CurrentUser for call sites that cannot proceed anonymously:
// absence of identity fails with apierror.ErrNotAuthenticated instead of
// (nil, nil).
func (m *Manager) RequireUser(ctx context.Context) (*types.Client, error) {
	user, err := m.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierror.ErrNotAuthenticated
	}
	return user, nil
}

// probe resolves the currently authenticated user. The server answers null
// for an unknown or revoked credential, which decodes to a nil user.
func (m *Manager) probe(ctx context.Context) (*types.Client, error) {
	var user *types.Client
	if err := m.api.Get(ctx, basePath+"/", &user); err != nil {
		return nil, err
	}
	return user, nil
}

// rollback drops the unconfirmed credential and returns to anonymous.
func (m *Manager) rollback(ctx context.Context) {
	if err := m.creds.Clear(ctx); err != nil {
		m.log.Error(ctx, "failed to roll back unconfirmed credential", "err", err)
	}
	m.state = StateAnonymous
	m.user = nil
}
