// Package transport implements the SDK request pipeline: one outbound
// HTTP/JSON request per call, with the current credential attached as a
// bearer header when present, and the outcome classified into the apierror
// taxonomy. The pipeline never retries and never mutates stored state; every
// failure is surfaced verbatim to the caller.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/konturpay/kontur-go/apierror"
	"github.com/konturpay/kontur-go/internal/logging"
)

// DefaultTimeout bounds a single request round-trip. A request that exceeds
// it is reported as a transport failure.
const DefaultTimeout = 15 * time.Second

// TokenSource supplies the current access token. An empty string means no
// credential is stored; the request is then sent unauthenticated, which is
// valid for a subset of endpoints.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Pipeline executes requests against a single kontur-client host.
type Pipeline struct {
	host    string
	client  *http.Client
	tokens  TokenSource
	log     logging.Logger
	timeout time.Duration
}

// NewPipeline creates a pipeline for the given host ("https://host[:port]").
// tokens may be nil for a purely unauthenticated pipeline; client and log
// may be nil to use defaults.
func NewPipeline(host string, tokens TokenSource, client *http.Client, log logging.Logger) *Pipeline {
	if client == nil {
		client = &http.Client{}
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Pipeline{
		host:    host,
		client:  client,
		tokens:  tokens,
		log:     log,
		timeout: DefaultTimeout,
	}
}

// Get executes a read request and decodes the response into out.
// Pass nil out to discard the payload.
func (p *Pipeline) Get(ctx context.Context, path string, out any) error {
	return p.do(ctx, http.MethodGet, path, nil, out)
}

// Post executes a write request with a JSON body and decodes the response
// into out. body and out may each be nil.
func (p *Pipeline) Post(ctx context.Context, path string, body any, out any) error {
	return p.do(ctx, http.MethodPost, path, body, out)
}

func (p *Pipeline) do(ctx context.Context, method, path string, body any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.host+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if p.tokens != nil {
		token, err := p.tokens.AccessToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to read access token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return &apierror.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		p.log.Debug(ctx, "request rejected", "method", method, "path", path, "status", resp.StatusCode)
		return &apierror.ProtocolError{StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apierror.TransportError{Err: err}
	}

	return decodePayload(raw, out)
}

// decodePayload classifies a success-status body: unparseable payloads are
// decode failures, an embedded "error" field is an application failure, and
// everything else unmarshals into out.
func decodePayload(raw []byte, out any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		// Some write endpoints respond with an empty body.
		return nil
	}
	if !json.Valid(raw) {
		return &apierror.DecodeError{Err: fmt.Errorf("response is not valid json")}
	}

	// Payloads can be scalars (a number, a bool); only objects can carry an
	// embedded error key.
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		var probe struct {
			Error json.RawMessage `json:"error"`
		}
		if err := json.Unmarshal(raw, &probe); err == nil {
			if code, ok := errorCode(probe.Error); ok {
				return &apierror.APIError{Code: code}
			}
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &apierror.DecodeError{Err: err}
	}
	return nil
}

// errorCode extracts an application error code from an embedded "error"
// value. The value is usually a string code, but any present value other
// than null or "" marks the call failed; non-string shapes are reported as
// their raw JSON.
func errorCode(v json.RawMessage) (string, bool) {
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return "", false
	}
	var code string
	if err := json.Unmarshal(v, &code); err == nil {
		return code, code != ""
	}
	return string(v), true
}
