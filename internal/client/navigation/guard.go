// Package navigation decides whether the user may enter a route given the
// current session, the way a router's global guard does.
package navigation

import (
	"context"
	"net/url"

	"github.com/dmitrijs2005/pinshare/internal/common"
	"github.com/dmitrijs2005/pinshare/internal/logging"
)

// Sessions is what the guard needs from the session monitor.
type Sessions interface {
	IsAuthenticated(ctx context.Context) bool
	ClearCredentials(ctx context.Context) error
}

type Notifier interface {
	Notify(ctx context.Context, msg string)
}

type Action int

const (
	Allow Action = iota
	Redirect
)

// Decision is the guard's verdict. For redirects, To is the target route
// and Query carries the "redirect" back-link when there is one.
type Decision struct {
	Action Action
	To     Route
	Query  url.Values
}

func (d Decision) Allowed() bool { return d.Action == Allow }

// Location renders the redirect target with its query.
func (d Decision) Location() string {
	if len(d.Query) == 0 {
		return d.To.Path
	}
	return d.To.Path + "?" + d.Query.Encode()
}

type Guard struct {
	sessions Sessions
	notifier Notifier
	log      logging.Logger
}

func NewGuard(sessions Sessions, notifier Notifier, log logging.Logger) *Guard {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Guard{sessions: sessions, notifier: notifier, log: log}
}

// Check evaluates a navigation from "from" (nil on the first navigation)
// to "to".
func (g *Guard) Check(ctx context.Context, to Route, from *Route) Decision {
	authenticated := g.sessions.IsAuthenticated(ctx)

	if to.Meta.Guest && authenticated {
		return Decision{Action: Redirect, To: Routes[Home]}
	}

	if to.Meta.RequiresAuth && !authenticated {
		if err := g.sessions.ClearCredentials(ctx); err != nil {
			g.log.Warn(ctx, "failed to clear stale credentials", "error", err)
		}
		if from != nil && from.Name != "" && g.notifier != nil {
			g.notifier.Notify(ctx, common.SessionExpiredMessage)
		}
		return Decision{
			Action: Redirect,
			To:     Routes[Login],
			Query:  url.Values{"redirect": []string{to.Path}},
		}
	}

	return Decision{Action: Allow, To: to}
}
