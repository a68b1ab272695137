// Package events maintains the push-notification channel: a single websocket
// connection scoped to the authenticated session, fanned out to subscribers
// through an in-process watermill bus.
//
// The bus outlives any one connection, so subscriptions may be registered
// before the first Open and survive re-authentication; frames simply stop
// flowing while no connection is up. Connection trouble is an observability
// event, never a fatal error: request/response calls keep working while the
// push channel is degraded.
package events

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"

	"github.com/konturpay/kontur-go/internal/logging"
	"github.com/konturpay/kontur-go/transport"
)

const (
	// maxReconnects bounds automatic reconnection attempts for one session.
	// Exhausting them leaves the channel closed until the next Open.
	maxReconnects = 5

	reconnectBackoff = 500 * time.Millisecond

	topicPrefix = "kontur.events."

	// sessionMetaKey tags every published frame with the session that read
	// it off the wire, so late fan-out cannot leak into another session.
	sessionMetaKey = "session"
)

// Channel owns the websocket connection and the subscriber bus. Lifecycle is
// driven by session transitions: Open on authentication, Close on logout.
// At most one connection is live at a time; Open tears down the previous one
// first.
type Channel struct {
	wsURL  string
	tokens transport.TokenSource
	log    logging.Logger
	bus    *gochannel.GoChannel

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64        // session generation, bumped on every Open
	done   chan struct{} // closed when the current session ends
}

// NewChannel creates a closed channel for the given API host
// ("https://host[:port]"). The push endpoint is derived from the host and
// scoped to the client resource area.
func NewChannel(host string, tokens transport.TokenSource, log logging.Logger) *Channel {
	if log == nil {
		log = logging.NewNopLogger()
	}
	done := make(chan struct{})
	close(done) // no session live yet
	return &Channel{
		wsURL:  strings.Replace(host, "http", "ws", 1) + "/client/events",
		tokens: tokens,
		log:    log,
		bus: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 16,
		}, watermill.NopLogger{}),
		done: done,
	}
}

// Subscribe delivers notifications of one kind until ctx is cancelled. It
// may be called at any time, before or after Open: the subscription is held
// by the bus, not by the connection.
//
// Delivery is handed over synchronously and only while the session that
// produced the notification is still live: a frame still in flight when the
// session closes is dropped, never delivered into the next session.
func (c *Channel) Subscribe(ctx context.Context, kind Kind) (<-chan Notification, error) {
	msgs, err := c.bus.Subscribe(ctx, topicPrefix+string(kind))
	if err != nil {
		return nil, err
	}

	out := make(chan Notification)
	go func() {
		defer close(out)
		for msg := range msgs {
			payload, err := decodePayload(kind, msg.Payload)
			msg.Ack()
			if err != nil {
				c.log.Warn(ctx, "dropping undecodable notification", "kind", kind, "err", err)
				continue
			}
			gen, done, live := c.session()
			if !live || msg.Metadata.Get(sessionMetaKey) != gen {
				continue // the producing session is already over
			}
			select {
			case out <- Notification{Kind: kind, Payload: payload}:
			case <-done:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// session snapshots the current session: its generation tag, its done
// channel, and whether it is still live.
func (c *Channel) session() (string, <-chan struct{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
		return "", c.done, false
	default:
		return strconv.FormatUint(c.gen, 10), c.done, true
	}
}

// Open establishes the push connection for the current credential. Any live
// connection is closed first, so two rapid authentications never leave two
// connections up. Failure to connect is logged and retried in the
// background; Open itself never fails the session.
func (c *Channel) Open(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endSessionLocked()

	token, err := c.tokens.AccessToken(ctx)
	if err != nil || token == "" {
		c.log.Error(ctx, "push channel not opened, no usable credential", "err", err)
		return
	}

	c.gen++
	c.done = make(chan struct{})
	connCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.run(connCtx, token, strconv.FormatUint(c.gen, 10))
}

// Close tears down the connection and stops any reconnection in flight.
// Subscriptions stay registered for the next session.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endSessionLocked()
}

func (c *Channel) endSessionLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		close(c.done)
	}
}

// run dials and reads until the session ends or the reconnect budget is
// spent. The credential is passed as a connection parameter: the push
// endpoint has no per-message headers.
func (c *Channel) run(ctx context.Context, token, gen string) {
	dialURL := c.wsURL + "?" + url.Values{"access_token": {token}}.Encode()

	backoff := retry.WithMaxRetries(maxReconnects, retry.NewExponential(reconnectBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, dialURL, nil)
		if err != nil {
			c.log.Warn(ctx, "push connection failed", "err", err)
			return retry.RetryableError(err)
		}

		c.log.Info(ctx, "push channel connected")
		err = c.readLoop(ctx, conn, gen)
		if ctx.Err() != nil {
			return nil // deliberate teardown
		}
		c.log.Warn(ctx, "push connection dropped", "err", err)
		return retry.RetryableError(err)
	})
	if err != nil && ctx.Err() == nil {
		c.log.Error(ctx, "push channel reconnect attempts exhausted", "err", err)
	}
}

// readLoop pumps frames from one connection into the bus. It returns when
// the connection breaks or ctx is cancelled.
func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn, gen string) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
			_ = conn.Close()
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.dispatch(ctx, raw, gen)
	}
}

// dispatch decodes one frame and publishes it to the kind's topic. A frame
// that cannot be decoded is dropped; delivery of subsequent frames is not
// affected.
func (c *Channel) dispatch(ctx context.Context, raw []byte, gen string) {
	if ctx.Err() != nil {
		return // session already ended, deliver nothing
	}

	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		c.log.Warn(ctx, "dropping malformed push frame", "err", err)
		return
	}

	kind := Kind(f.Event)
	if _, err := decodePayload(kind, f.Data); err != nil {
		c.log.Warn(ctx, "dropping push frame", "event", f.Event, "err", err)
		return
	}

	msg := message.NewMessage(uuid.NewString(), []byte(f.Data))
	msg.Metadata.Set("kind", string(kind))
	msg.Metadata.Set(sessionMetaKey, gen)
	if err := c.bus.Publish(topicPrefix+string(kind), msg); err != nil {
		c.log.Warn(ctx, "failed to fan out notification", "kind", kind, "err", err)
	}
}
