package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/pinshare/internal/client/config"
	"github.com/dmitrijs2005/pinshare/internal/client/models"
	"github.com/dmitrijs2005/pinshare/internal/client/navigation"
	"github.com/dmitrijs2005/pinshare/internal/client/pinning"
	"github.com/dmitrijs2005/pinshare/internal/client/storage"
	"github.com/dmitrijs2005/pinshare/internal/common"
	"github.com/dmitrijs2005/pinshare/internal/logging"
	"github.com/dmitrijs2005/pinshare/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHash = "bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy"

type stubPinner struct {
	mu       sync.Mutex
	pinned   []string
	unpinned []string
}

func (p *stubPinner) Pin(_ context.Context, name string, r io.Reader) (*pinning.PinResult, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pinned = append(p.pinned, name)
	return &pinning.PinResult{Hash: testHash, Size: int64(len(b))}, nil
}

func (p *stubPinner) Unpin(_ context.Context, hash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unpinned = append(p.unpinned, hash)
	return nil
}

// syncBuffer lets the background monitor and the REPL print concurrently.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	old := getPassword
	getPassword = func(io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = old })
}

func newTestApp(t *testing.T, b *testutil.Backend, input ...string) (*App, *stubPinner, *syncBuffer) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIURL = b.URL()
	cfg.SessionCheckInterval = time.Hour

	out := &syncBuffer{}
	pinner := &stubPinner{}
	a := &App{
		config: cfg,
		log:    logging.NewNopLogger(),
		out:    out,
		reader: bufio.NewReader(strings.NewReader(strings.Join(input, "\n"))),
	}
	require.NoError(t, a.wire(storage.NewMemoryStore(), pinner, nil))
	return a, pinner, out
}

func TestApp_Run_EndToEnd(t *testing.T) {
	b := testutil.NewBackend(t)
	stubPassword(t, b.Password)

	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	a, pinner, out := newTestApp(t, b,
		"files",
		"login",
		b.Email,
		"upload "+path,
		"files",
		"share 1 24",
		"links",
		"open sh001",
		"unshare sh001",
		"delete 1",
		"logout",
		"files",
		"exit",
	)
	a.Run(context.Background())

	got := out.String()
	assert.Contains(t, got, "Login required (/login?redirect=%2F)")
	assert.Contains(t, got, "Login successful")
	assert.Contains(t, got, "Uploaded hello.txt (id 1)")
	assert.Contains(t, got, pinning.IPFSURL(testHash))
	assert.Contains(t, got, "Share id: sh001")
	assert.Contains(t, got, "active")
	assert.Contains(t, got, "hello.txt (5 bytes, text/plain")
	assert.Contains(t, got, "Link sh001 deleted")
	assert.Contains(t, got, "File 1 deleted")
	assert.Contains(t, got, "Logged out")
	assert.Equal(t, 2, strings.Count(got, "Login required"))

	assert.Equal(t, []string{"hello.txt"}, pinner.pinned)
	assert.Equal(t, []string{testHash}, pinner.unpinned)
	assert.Zero(t, b.FileCount())
	assert.Zero(t, b.LinkCount())
	assert.Len(t, b.Calls("POST", "/logout"), 1)
}

func TestApp_GuestRouteWhileSignedIn(t *testing.T) {
	b := testutil.NewBackend(t)
	stubPassword(t, b.Password)
	a, _, out := newTestApp(t, b, b.Email)
	ctx := context.Background()

	require.NoError(t, a.Login(ctx))
	assert.True(t, a.isLoggedIn(ctx))

	assert.False(t, a.navigate(ctx, navigation.Routes[navigation.Login]))
	assert.Equal(t, navigation.Home, a.from().Name)
	assert.Contains(t, out.String(), "Already signed in")
	assert.Contains(t, a.getStatus(), b.Email)
}

func TestApp_LoginFailure(t *testing.T) {
	b := testutil.NewBackend(t)
	stubPassword(t, "wrong")
	a, _, out := newTestApp(t, b, b.Email)

	err := a.Login(context.Background())
	require.Error(t, err)
	assert.Contains(t, out.String(), "Login unsuccessful")
	assert.Contains(t, out.String(), "invalid credentials")
	assert.False(t, a.isLoggedIn(context.Background()))
}

func TestApp_SignupAndVerify(t *testing.T) {
	b := testutil.NewBackend(t)
	stubPassword(t, "secret")
	a, _, out := newTestApp(t, b, "ann", "ann@example.com")
	ctx := context.Background()

	require.NoError(t, a.Signup(ctx))
	assert.Equal(t, "/otp/pending-ann", a.from().Path)
	assert.Contains(t, out.String(), "check your inbox")

	require.Error(t, a.Verify(ctx, "000000", ""))
	require.NoError(t, a.Verify(ctx, b.OTP, ""))
	assert.True(t, a.isLoggedIn(ctx))
	assert.Contains(t, out.String(), "Account verified, you are signed in")

	calls := b.Calls("POST", "/verify")
	require.Len(t, calls, 2)
	assert.Contains(t, string(calls[1].Body), `"id":"pending-ann"`)

	require.Error(t, a.Verify(ctx, b.OTP, ""), "pending id is consumed")
}

func TestApp_ExpiredSessionRedirectsToLogin(t *testing.T) {
	b := testutil.NewBackend(t)
	stubPassword(t, b.Password)
	a, _, out := newTestApp(t, b, b.Email)
	ctx := context.Background()
	require.NoError(t, a.Login(ctx))

	// the backend starts rejecting the token
	b.SessionToken = testutil.Token(t, "1", time.Now().Add(time.Hour)) + "x"

	err := a.Files(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrSessionExpired)
	assert.Equal(t, navigation.Login, a.from().Name)
	assert.Contains(t, out.String(), common.SessionExpiredMessage)
	assert.Contains(t, out.String(), "Type 'login' to sign in again.")
	assert.NotContains(t, a.getStatus(), b.Email)
}

func TestApp_CheckSessionIsSilent(t *testing.T) {
	b := testutil.NewBackend(t)
	stubPassword(t, b.Password)
	a, _, out := newTestApp(t, b, b.Email)
	ctx := context.Background()

	assert.False(t, a.CheckSession(ctx))
	assert.Empty(t, out.String())

	require.NoError(t, a.Login(ctx))
	assert.True(t, a.CheckSession(ctx))
	assert.NotContains(t, out.String(), common.SessionExpiredMessage)
}

func TestApp_OpenMissingShare(t *testing.T) {
	b := testutil.NewBackend(t)
	a, _, out := newTestApp(t, b)

	err := a.Open(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrLinkExpiredOrMissing))
	assert.Contains(t, out.String(), "expired or does not exist")
}

func TestApp_ShareRejectsNonNumericHours(t *testing.T) {
	b := testutil.NewBackend(t)
	a, _, out := newTestApp(t, b)

	require.Error(t, a.Share(context.Background(), "1", "soon"))
	assert.Contains(t, out.String(), `Hours must be a whole number: "soon"`)
	assert.Empty(t, b.Calls("POST", "/files/share"))
}

func TestNewApp_OpensStorageAndWritesMetrics(t *testing.T) {
	b := testutil.NewBackend(t)
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIURL = b.URL()
	cfg.StorageDSN = filepath.Join(dir, "client.db")
	cfg.MetricsFile = filepath.Join(dir, "metrics.prom")

	var out bytes.Buffer
	a, err := NewApp(context.Background(), cfg, nil, strings.NewReader("open sh404\nexit\n"), &out)
	require.NoError(t, err)

	a.Run(context.Background())

	assert.FileExists(t, cfg.StorageDSN)
	data, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `pinshare_requests_total{code="404",method="GET"} 1`)

	// the pin store is unconfigured without a JWT
	_, err = a.sharing.UploadFile(context.Background(), models.Upload{Name: "x", Content: strings.NewReader("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPinFailed)
}
