package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/pinshare/internal/client/metrics"
	"github.com/dmitrijs2005/pinshare/internal/client/storage"
	"github.com/dmitrijs2005/pinshare/internal/client/token"
	"github.com/dmitrijs2005/pinshare/internal/common"
	"github.com/dmitrijs2005/pinshare/internal/logging"
	"github.com/robfig/cron/v3"
)

// DefaultInterval is used when Start is given a non-positive interval.
const DefaultInterval = 60 * time.Second

// State is the monitor's view of the session.
type State int

const (
	// Unknown means nothing has been observed since the monitor was created.
	Unknown State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

type Option func(*Monitor)

func WithNavigator(n Navigator) Option { return func(m *Monitor) { m.nav = n } }

func WithNotifier(n Notifier) Option { return func(m *Monitor) { m.notifier = n } }

func WithInspector(i *token.Inspector) Option { return func(m *Monitor) { m.inspector = i } }

func WithHTTPClient(c *http.Client) Option { return func(m *Monitor) { m.client = c } }

func WithLogger(l logging.Logger) Option { return func(m *Monitor) { m.log = l } }

func WithMetrics(mt *metrics.Metrics) Option { return func(m *Monitor) { m.metrics = mt } }

// Monitor owns the session state. It is safe for concurrent use.
type Monitor struct {
	store     storage.Store
	inspector *token.Inspector
	nav       Navigator
	notifier  Notifier
	client    *http.Client
	log       logging.Logger
	metrics   *metrics.Metrics

	mu    sync.Mutex
	state State

	cronMu sync.Mutex
	cron   *cron.Cron
}

func NewMonitor(store storage.Store, opts ...Option) *Monitor {
	m := &Monitor{
		store:     store,
		inspector: token.NewInspector(),
		nav:       nopNavigator{},
		notifier:  nopNotifier{},
		client:    http.DefaultClient,
		log:       logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Token returns the stored bearer token, or "" when there is none.
func (m *Monitor) Token(ctx context.Context) (string, error) {
	tok, err := m.store.Get(ctx, common.AuthTokenKey)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return tok, nil
}

// IsAuthenticated reports whether a non-expired token is stored. It has no
// side effects.
func (m *Monitor) IsAuthenticated(ctx context.Context) bool {
	tok, err := m.Token(ctx)
	if err != nil {
		m.log.Warn(ctx, "session check failed", "error", err)
		return false
	}
	return tok != "" && !m.inspector.IsExpired(tok)
}

// Validate checks the stored token and runs expiry handling when it is
// missing or expired. A storage read failure is reported as unauthenticated
// without touching the session.
func (m *Monitor) Validate(ctx context.Context) bool {
	tok, err := m.Token(ctx)
	if err != nil {
		m.log.Warn(ctx, "session validation failed", "error", err)
		return false
	}
	if tok == "" || m.inspector.IsExpired(tok) {
		m.expireIfCurrent(ctx, tok)
		return false
	}

	m.mu.Lock()
	if m.state == Unknown {
		m.state = Authenticated
	}
	m.mu.Unlock()
	return true
}

// Authenticate stores a freshly issued token and the user id and marks the
// session as authenticated.
func (m *Monitor) Authenticate(ctx context.Context, tok, userID string) error {
	if m.inspector.IsExpired(tok) {
		return common.ErrInvalidToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Set(ctx, common.AuthTokenKey, tok); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if userID != "" {
		if err := m.store.Set(ctx, common.UserIDKey, userID); err != nil {
			return fmt.Errorf("store user id: %w", err)
		}
	}
	m.state = Authenticated
	return nil
}

// Logout drops the credentials without notifying or redirecting.
func (m *Monitor) Logout(ctx context.Context) error {
	if err := m.ClearCredentials(ctx); err != nil {
		return err
	}
	m.log.Info(ctx, "logged out")
	return nil
}

// ClearCredentials removes stale credentials and marks the session as
// unauthenticated. Nothing is shown to the user.
func (m *Monitor) ClearCredentials(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = Unauthenticated
	if err := m.store.Remove(ctx, common.CredentialKeys...); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// Expire ends the session: credentials are removed, the user is notified and
// sent to the login route. Calling it again while already unauthenticated
// only re-clears storage.
func (m *Monitor) Expire(ctx context.Context) {
	m.mu.Lock()
	m.expireLocked(ctx)
}

// ExpireToken is Expire for a caller that saw tok rejected. It does nothing
// when a login has replaced tok in the meantime.
func (m *Monitor) ExpireToken(ctx context.Context, tok string) {
	m.expireIfCurrent(ctx, tok)
}

func (m *Monitor) expireIfCurrent(ctx context.Context, tok string) {
	m.mu.Lock()
	cur, err := m.store.Get(ctx, common.AuthTokenKey)
	if err != nil {
		m.mu.Unlock()
		m.log.Warn(ctx, "session expiry skipped", "error", err)
		return
	}
	if cur != tok {
		m.mu.Unlock()
		m.log.Debug(ctx, "token replaced since check, keeping session")
		return
	}
	m.expireLocked(ctx)
}

// expireLocked is called with m.mu held and releases it.
func (m *Monitor) expireLocked(ctx context.Context) {
	prev := m.state
	m.state = Unauthenticated
	err := m.store.Remove(ctx, common.CredentialKeys...)
	m.mu.Unlock()

	if err != nil {
		m.log.Error(ctx, "failed to clear credentials", "error", err)
	}
	if prev == Unauthenticated {
		return
	}

	m.metrics.SessionExpired()
	m.log.Info(ctx, "session expired", "previous_state", prev.String())
	m.notifier.Notify(ctx, common.SessionExpiredMessage)
	m.nav.Redirect(ctx, common.LoginRoute)
}

// AuthenticatedRequest sends req with the stored bearer token. The caller
// owns the returned response body.
func (m *Monitor) AuthenticatedRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	tok, err := m.Token(ctx)
	if err != nil {
		return nil, err
	}
	if tok == "" {
		m.expireIfCurrent(ctx, tok)
		return nil, common.ErrNoCredentials
	}

	req = req.Clone(ctx)
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+tok)

	resp, err := m.client.Do(req)
	if err != nil {
		m.metrics.TransportError()
		m.log.Warn(ctx, "request failed, re-validating session", "url", req.URL.String(), "error", err)
		m.Validate(ctx)
		return nil, fmt.Errorf("%w: %w", common.ErrTransport, err)
	}
	m.metrics.ObserveRequest(req.Method, resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		m.expireIfCurrent(ctx, tok)
		return nil, common.ErrSessionExpired
	}
	return resp, nil
}

// Start validates once and then on every interval until Stop. Calling Start
// again before Stop does nothing.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	m.cronMu.Lock()
	if m.cron != nil {
		m.cronMu.Unlock()
		m.log.Debug(ctx, "session monitor already running")
		return
	}
	c := newCron(m.log)
	c.Schedule(every(interval), cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		m.Validate(ctx)
	}))
	m.cron = c
	c.Start()
	m.cronMu.Unlock()

	m.log.Debug(ctx, "session monitor started", "interval", interval.String())
	m.Validate(ctx)
}

// Stop cancels pending ticks and waits for a running one to finish.
func (m *Monitor) Stop() {
	m.cronMu.Lock()
	c := m.cron
	m.cron = nil
	m.cronMu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
}

func (m *Monitor) running() int {
	m.cronMu.Lock()
	defer m.cronMu.Unlock()
	if m.cron == nil {
		return 0
	}
	return len(m.cron.Entries())
}
