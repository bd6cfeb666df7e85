package navigation

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/pinshare/internal/common"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	Authenticated bool
	ClearErr      error
	ClearCalls    int
}

func (f *fakeSessions) IsAuthenticated(context.Context) bool { return f.Authenticated }

func (f *fakeSessions) ClearCredentials(context.Context) error {
	f.ClearCalls++
	return f.ClearErr
}

type fakeNotifier struct {
	Messages []string
}

func (f *fakeNotifier) Notify(_ context.Context, msg string) { f.Messages = append(f.Messages, msg) }

func TestCheck(t *testing.T) {
	home := Routes[Home]
	upload := Routes[Upload]

	tests := []struct {
		name          string
		authenticated bool
		to            Route
		from          *Route
		wantAllowed   bool
		wantLocation  string
		wantClears    int
		wantNotified  int
	}{
		{"guest route while authenticated", true, Routes[Login], &home, false, "/", 0, 0},
		{"guest route while anonymous", false, Routes[Signup], nil, true, "", 0, 0},
		{"protected route while authenticated", true, upload, &home, true, "", 0, 0},
		{"protected route on first navigation", false, upload, nil, false, "/login?redirect=%2Fupload", 1, 0},
		{"protected route from unnamed route", false, upload, &Route{Path: "/"}, false, "/login?redirect=%2Fupload", 1, 0},
		{"protected route from named route", false, upload, &home, false, "/login?redirect=%2Fupload", 1, 1},
		{"public route while anonymous", false, Routes[SharedFile].Resolve("abc"), &home, true, "", 0, 0},
		{"public route while authenticated", true, Routes[Help], nil, true, "", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSessions{Authenticated: tt.authenticated}
			n := &fakeNotifier{}
			g := NewGuard(s, n, nil)

			d := g.Check(context.Background(), tt.to, tt.from)
			require.Equal(t, tt.wantAllowed, d.Allowed())
			if !tt.wantAllowed {
				require.Equal(t, tt.wantLocation, d.Location())
			} else {
				require.Equal(t, tt.to, d.To)
			}
			require.Equal(t, tt.wantClears, s.ClearCalls)
			require.Len(t, n.Messages, tt.wantNotified)
			for _, m := range n.Messages {
				require.Equal(t, common.SessionExpiredMessage, m)
			}
		})
	}
}

func TestCheck_ClearFailureStillRedirects(t *testing.T) {
	s := &fakeSessions{ClearErr: errors.New("locked")}
	g := NewGuard(s, nil, nil)

	d := g.Check(context.Background(), Routes[Links], &Route{Name: Home})
	require.False(t, d.Allowed())
	require.Equal(t, Login, d.To.Name)
	require.Equal(t, "/links", d.Query.Get("redirect"))
}

func TestRoute_Resolve(t *testing.T) {
	r := Routes[Unshare].Resolve("s-1")
	require.Equal(t, "/links/s-1/delete", r.Path)
	require.Equal(t, "/otp/:id", Routes[OTP].Resolve().Path)
	require.Equal(t, "/files/7/share", Routes[Share].Resolve("7", "extra").Path)
}

func TestByPath(t *testing.T) {
	r, ok := ByPath("/upload?x=1")
	require.True(t, ok)
	require.Equal(t, Upload, r.Name)

	_, ok = ByPath("/nowhere")
	require.False(t, ok)
}
