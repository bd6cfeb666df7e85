package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/dmitrijs2005/pinshare/internal/client/config"
	"github.com/dmitrijs2005/pinshare/internal/client/gateway"
	"github.com/dmitrijs2005/pinshare/internal/client/metrics"
	"github.com/dmitrijs2005/pinshare/internal/client/navigation"
	"github.com/dmitrijs2005/pinshare/internal/client/pinning"
	"github.com/dmitrijs2005/pinshare/internal/client/services"
	"github.com/dmitrijs2005/pinshare/internal/client/session"
	"github.com/dmitrijs2005/pinshare/internal/client/storage"
	"github.com/dmitrijs2005/pinshare/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// App is the terminal client: one session monitor, the services it drives
// and the guard deciding which commands may run.
type App struct {
	config  *config.Config
	log     logging.Logger
	out     io.Writer
	reader  *bufio.Reader
	db      *sql.DB
	reg     *prometheus.Registry
	monitor *session.Monitor
	auth    services.AuthService
	sharing services.SharingService
	guard   *navigation.Guard

	mu        sync.Mutex
	current   *navigation.Route
	userName  string
	pendingID string
}

// NewApp opens local storage and wires the client components from c.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}

	dsn, err := c.StoragePath()
	if err != nil {
		return nil, err
	}
	db, err := storage.OpenSQLite(ctx, dsn)
	if err != nil {
		log.Error(ctx, "error initializing database", "dsn", dsn, "error", err)
		return nil, err
	}

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	pinner, err := pinning.New(c.Pinning.Type, c.PinningArgs())
	if err != nil {
		log.Warn(ctx, "pinning service unavailable", "type", c.Pinning.Type, "error", err)
		pinner = unavailablePinner{err: err}
	}

	a := &App{config: c, log: log, out: out, reader: bufio.NewReader(in), db: db, reg: reg}
	if err := a.wire(storage.NewSQLiteStore(db), pinner, m); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

// wire builds the session monitor, both gateways, the services and the
// guard on top of store.
func (a *App) wire(store storage.Store, pinner pinning.Pinner, m *metrics.Metrics) error {
	c := a.config
	httpClient := &http.Client{Timeout: c.RequestTimeout}

	a.monitor = session.NewMonitor(store,
		session.WithNavigator(session.NavigatorFunc(a.redirect)),
		session.WithNotifier(session.NotifierFunc(a.notify)),
		session.WithHTTPClient(httpClient),
		session.WithLogger(a.log.With("component", "session")),
		session.WithMetrics(m),
	)

	api, err := gateway.New(c.APIURL, store,
		gateway.WithHTTPClient(httpClient),
		gateway.WithExpiryHandler(a.monitor),
		gateway.WithLogger(a.log.With("component", "gateway")),
		gateway.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("api gateway: %w", err)
	}
	public, err := gateway.New(c.PublicURL(), nil,
		gateway.WithHTTPClient(&http.Client{Timeout: c.RequestTimeout}),
		gateway.WithLogger(a.log.With("component", "public-gateway")),
		gateway.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("public gateway: %w", err)
	}

	a.auth = services.NewAuthService(api, a.monitor, a.log.With("component", "auth"))
	a.sharing = services.NewSharingService(api, public, pinner,
		services.WithListingFallback(c.ShareListingFallback),
		services.WithSharingLogger(a.log.With("component", "sharing")),
		services.WithSharingMetrics(m),
	)
	a.guard = navigation.NewGuard(a.monitor, notifierFunc(a.notify), a.log.With("component", "guard"))
	return nil
}

// Run validates the stored session, starts the background monitor and
// blocks in the REPL until the user exits or in reaches EOF.
func (a *App) Run(ctx context.Context) {
	defer a.Close(ctx)

	a.printf("Welcome to PinShare CLI (type 'help' for commands)\n")
	if a.monitor.IsAuthenticated(ctx) {
		a.navigate(ctx, navigation.Routes[navigation.Home])
	} else {
		// Starting without a session is not an expiry.
		if err := a.monitor.ClearCredentials(ctx); err != nil {
			a.log.Warn(ctx, "failed to clear stale credentials", "error", err)
		}
		a.setCurrent(navigation.Routes[navigation.Login])
	}

	a.monitor.Start(ctx, a.config.SessionCheckInterval)
	defer a.monitor.Stop()

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

// Close writes the metrics textfile when configured and closes storage.
func (a *App) Close(ctx context.Context) {
	if a.config.MetricsFile != "" && a.reg != nil {
		if err := prometheus.WriteToTextfile(a.config.MetricsFile, a.reg); err != nil {
			a.log.Warn(ctx, "failed to write metrics", "path", a.config.MetricsFile, "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn(ctx, "failed to close storage", "error", err)
		}
		a.db = nil
	}
}

// CheckSession reports whether a usable session is stored. Nothing is shown
// to the user and storage is left as is.
func (a *App) CheckSession(ctx context.Context) bool {
	return a.monitor.IsAuthenticated(ctx)
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	return a.monitor.IsAuthenticated(ctx)
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.monitor.State().String()
	if a.userName != "" {
		s = a.userName + " " + s
	}
	if a.current != nil {
		s += " " + a.current.Path
	}
	return "(" + s + ")"
}

func (a *App) setCurrent(r navigation.Route) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = &r
}

func (a *App) from() *navigation.Route {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return nil
	}
	r := *a.current
	return &r
}

// navigate asks the guard whether to may be entered. On a redirect the
// client moves to the target and false is returned.
func (a *App) navigate(ctx context.Context, to navigation.Route) bool {
	d := a.guard.Check(ctx, to, a.from())
	a.setCurrent(d.To)
	if d.Allowed() {
		return true
	}
	if d.To.Name == navigation.Login {
		a.printf("Login required (%s). Type 'login' to sign in.\n", d.Location())
	} else {
		a.printf("Already signed in, nothing to do.\n")
	}
	return false
}

// redirect is the session monitor's navigator.
func (a *App) redirect(_ context.Context, path string) {
	r, ok := navigation.ByPath(path)
	if !ok {
		return
	}
	a.mu.Lock()
	a.current = &r
	a.userName = ""
	a.mu.Unlock()
	if r.Name == navigation.Login {
		a.printf("Type 'login' to sign in again.\n")
	}
}

func (a *App) notify(_ context.Context, msg string) {
	a.printf("! %s\n", msg)
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

type notifierFunc func(ctx context.Context, msg string)

func (f notifierFunc) Notify(ctx context.Context, msg string) { f(ctx, msg) }

// unavailablePinner stands in for a pin store that could not be configured
// so the rest of the client keeps working.
type unavailablePinner struct{ err error }

func (u unavailablePinner) Pin(context.Context, string, io.Reader) (*pinning.PinResult, error) {
	return nil, u.err
}

func (u unavailablePinner) Unpin(context.Context, string) error { return u.err }
