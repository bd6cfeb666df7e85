// Package gateway sends requests to the metadata service and normalizes
// responses: the stored bearer token is attached, 401 ends the session, and
// error bodies are read once and turned into *common.RequestFailedError.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/dmitrijs2005/pinshare/internal/client/metrics"
	"github.com/dmitrijs2005/pinshare/internal/client/storage"
	"github.com/dmitrijs2005/pinshare/internal/common"
	"github.com/dmitrijs2005/pinshare/internal/logging"
)

const (
	DefaultTimeout = 30 * time.Second
	maxBodySize    = 16 << 20
	contentTypeKey = "Content-Type"
	jsonMediaType  = "application/json"
)

// ExpiryHandler is told which token the backend rejected. It owns clearing
// the credentials and must leave a token stored by a later login alone.
type ExpiryHandler interface {
	ExpireToken(ctx context.Context, tok string)
}

// Options describe a single request.
type Options struct {
	Method  string
	Headers map[string]string
	Body    any
	// NoAuth skips the Authorization header even when a token is stored.
	NoAuth bool
}

// Client is the request gateway contract used by the services.
type Client interface {
	Request(ctx context.Context, endpoint string, opts Options) (*Result, error)
}

type Option func(*Gateway)

func WithHTTPClient(c *http.Client) Option { return func(g *Gateway) { g.client = c } }

func WithExpiryHandler(h ExpiryHandler) Option { return func(g *Gateway) { g.expiry = h } }

func WithLogger(l logging.Logger) Option { return func(g *Gateway) { g.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(g *Gateway) { g.metrics = m } }

// Gateway talks to one base URL.
type Gateway struct {
	baseURL string
	store   storage.Store
	client  *http.Client
	expiry  ExpiryHandler
	log     logging.Logger
	metrics *metrics.Metrics
}

var _ Client = (*Gateway)(nil)

// New returns a gateway whose HTTP client keeps cookies across requests.
func New(baseURL string, store storage.Store, opts ...Option) (*Gateway, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		client:  &http.Client{Jar: jar, Timeout: DefaultTimeout},
		log:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.client.Jar == nil {
		c := *g.client
		c.Jar = jar
		g.client = &c
	}
	return g, nil
}

func (g *Gateway) BaseURL() string { return g.baseURL }

// Request calls endpoint (a path relative to the base URL).
func (g *Gateway) Request(ctx context.Context, endpoint string, opts Options) (*Result, error) {
	req, sent, err := g.newRequest(ctx, endpoint, opts)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.metrics.TransportError()
		g.log.Error(ctx, "request failed", "method", req.Method, "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrTransport, err)
	}
	defer resp.Body.Close()
	g.metrics.ObserveRequest(req.Method, resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		g.handleUnauthorized(ctx, sent)
		return nil, common.ErrSessionExpired
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &common.RequestFailedError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp),
		}
	case resp.StatusCode == http.StatusNoContent:
		return &Result{Status: resp.StatusCode, Kind: KindEmpty}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", common.ErrTransport, err)
	}
	if isJSON(resp.Header.Get(contentTypeKey)) {
		if !json.Valid(body) {
			return nil, fmt.Errorf("invalid JSON from %s", endpoint)
		}
		return &Result{Status: resp.StatusCode, Kind: KindJSON, body: body}, nil
	}
	return &Result{Status: resp.StatusCode, Kind: KindText, body: body}, nil
}

// newRequest also returns the bearer token it attached, "" when none.
func (g *Gateway) newRequest(ctx context.Context, endpoint string, opts Options) (*http.Request, string, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	switch b := opts.Body.(type) {
	case nil:
	case []byte:
		body = bytes.NewReader(b)
	case string:
		body = strings.NewReader(b)
	case io.Reader:
		body = b
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+endpoint, body)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}

	req.Header.Set(contentTypeKey, jsonMediaType)
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	var tok string
	if !opts.NoAuth && g.store != nil {
		tok, err = g.store.Get(ctx, common.AuthTokenKey)
		if err != nil {
			return nil, "", fmt.Errorf("read token: %w", err)
		}
		if tok != "" {
			req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+tok)
		}
	}
	return req, tok, nil
}

func (g *Gateway) handleUnauthorized(ctx context.Context, sent string) {
	g.log.Info(ctx, "backend rejected credentials")
	if g.expiry != nil {
		g.expiry.ExpireToken(ctx, sent)
		return
	}
	if g.store == nil {
		return
	}
	cur, err := g.store.Get(ctx, common.AuthTokenKey)
	if err != nil {
		g.log.Error(ctx, "failed to read credentials", "error", err)
		return
	}
	if cur != sent {
		return
	}
	if err := g.store.Remove(ctx, common.CredentialKeys...); err != nil {
		g.log.Error(ctx, "failed to clear credentials", "error", err)
	}
}

// errorMessage reads the body once, choosing the format from the declared
// content type.
func errorMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return common.DefaultErrorMessage
	}

	if isJSON(resp.Header.Get(contentTypeKey)) {
		var payload struct {
			Error any `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return common.DefaultErrorMessage
		}
		if s, ok := payload.Error.(string); ok && s != "" {
			return s
		}
		return common.DefaultErrorMessage
	}
	if len(body) == 0 {
		return common.DefaultErrorMessage
	}
	return string(body)
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, jsonMediaType)
	}
	return mt == jsonMediaType || strings.HasSuffix(mt, "+json")
}

// IsSessionError reports whether err means the caller must log in again.
func IsSessionError(err error) bool {
	return errors.Is(err, common.ErrSessionExpired) || errors.Is(err, common.ErrNoCredentials)
}
