// Package kontur is the client SDK for a kontur-client backend instance. It
// bundles authentication, the push-notification channel and the endpoint
// facades behind one container:
//
//	client, err := kontur.New(kontur.Config{Host: "https://pay.example"})
//	if err != nil { ... }
//	defer client.Close()
//
//	cooldown, err := client.Session.RequestCode(ctx, phone)
//	...
//	user, err := client.Session.SubmitCode(ctx, phone, code)
//
// The push channel follows the session: it opens on authentication and
// closes on logout, while subscriptions registered through Events.Subscribe
// persist across sessions.
package kontur

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/konturpay/kontur-go/api"
	"github.com/konturpay/kontur-go/cooldown"
	"github.com/konturpay/kontur-go/events"
	"github.com/konturpay/kontur-go/internal/logging"
	"github.com/konturpay/kontur-go/session"
	"github.com/konturpay/kontur-go/storage"
	"github.com/konturpay/kontur-go/transport"
	"github.com/konturpay/kontur-go/types"
)

// Config configures the SDK container.
type Config struct {
	// Host is the URL of the kontur-client instance, e.g. "https://pay.example".
	Host string

	// Storage holds the credential and the cooldown ledger. Defaults to an
	// in-memory store, which means the session will not survive the process;
	// pass a FileStore/SQLiteStore/RedisStore for durable sessions.
	Storage storage.Store

	// HTTPClient overrides the client used by the request pipeline.
	HTTPClient *http.Client

	// Logger receives SDK observability events. Nil disables logging.
	Logger *slog.Logger
}

// Client is the SDK root. Fields are independent facades sharing one request
// pipeline and one credential store.
type Client struct {
	Session  *session.Manager
	Events   *events.Channel
	Accounts *api.AccountsService
	Payments *api.PaymentsService
	Catalog  *api.CatalogService
	Loyalty  *api.LoyaltyService
}

// New wires the SDK against one host. The returned client is ready to use
// anonymously; authenticated operations start working after a login flow
// succeeds.
func New(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("kontur: host is required")
	}

	var log logging.Logger = logging.NewNopLogger()
	if cfg.Logger != nil {
		log = logging.NewSlogLogger(cfg.Logger)
	}

	store := cfg.Storage
	if store == nil {
		store = storage.NewMemoryStore()
	}

	creds := session.NewCredentialStore(store)
	pipeline := transport.NewPipeline(cfg.Host, creds, cfg.HTTPClient, log)
	cooldowns := cooldown.NewCache(store, log)

	manager := session.NewManager(pipeline, creds, cooldowns, log)
	channel := events.NewChannel(cfg.Host, creds, log)

	// The channel lifecycle is driven by session transitions and nothing
	// else: never opened while anonymous, closed as part of logout.
	manager.OnAuthenticated(func(_ *types.Client) { channel.Open(context.Background()) })
	manager.OnLoggedOut(channel.Close)

	return &Client{
		Session:  manager,
		Events:   channel,
		Accounts: api.NewAccountsService(pipeline),
		Payments: api.NewPaymentsService(pipeline),
		Catalog:  api.NewCatalogService(pipeline),
		Loyalty:  api.NewLoyaltyService(pipeline),
	}, nil
}

// Close tears down the push channel. It does not log the session out; a
// durable credential stays valid for the next run.
func (c *Client) Close() {
	c.Events.Close()
}
