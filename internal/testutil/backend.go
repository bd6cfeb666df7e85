// Package testutil provides an in-process fake of the metadata service for
// tests of the services and the terminal client.
package testutil

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// Call is one request received by the Backend.
type Call struct {
	Method string
	Path   string
	Auth   string
	Body   []byte
}

// Failure makes a route answer with Status and a JSON error body.
type Failure struct {
	Status  int
	Message string
	// Text sends Message as text/plain instead of JSON.
	Text bool
}

type file struct {
	ID   int
	Data map[string]any
}

type link struct {
	ShareID   string
	FileID    int
	ExpiresAt int64
	CreatedAt string
}

// Backend is a gin-based fake of the metadata service. Configure the exported
// fields before issuing requests.
type Backend struct {
	Server *httptest.Server

	Email    string
	Password string
	OTP      string
	// SessionToken is issued by /login and /verify and is the only bearer
	// token accepted on authenticated routes.
	SessionToken string
	UserID       string

	// LowercaseHash spells the content-address key "ipfshash" in responses.
	LowercaseHash bool
	// RawLinks, when set, replaces the /files/shared/links payload.
	RawLinks []map[string]any

	Fail map[string]Failure

	Now func() time.Time

	mu     sync.Mutex
	calls  []Call
	files  map[int]*file
	links  map[string]*link
	nextID int
	nextSh int
}

// NewBackend starts the fake and stops it when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := &Backend{
		Email:        "ann@example.com",
		Password:     "hunter2",
		OTP:          "123456",
		SessionToken: Token(t, "1", time.Now().Add(time.Hour)),
		UserID:       "1",
		Fail:         map[string]Failure{},
		Now:          time.Now,
		files:        map[int]*file{},
		links:        map[string]*link{},
	}
	b.Server = httptest.NewServer(b.router())
	t.Cleanup(b.Server.Close)
	return b
}

func (b *Backend) URL() string { return b.Server.URL }

// Route keys used by Fail, e.g. "POST /files".
const (
	RouteLogin      = "POST /login"
	RouteSignup     = "POST /signup"
	RouteVerify     = "POST /verify"
	RouteLogout     = "POST /logout"
	RouteGetUser    = "GET /getUser"
	RouteRegister   = "POST /files"
	RouteUserFiles  = "GET /files/user"
	RouteLookup     = "GET /files/:id"
	RouteDelete     = "DELETE /files/:id"
	RouteShare      = "POST /files/share"
	RouteLinks      = "GET /files/shared/links"
	RouteShared     = "GET /files/shared/:id"
	RouteDeleteLink = "DELETE /files/shared/:id"
)

// Calls returns the recorded requests matching method and path; empty
// arguments match anything.
func (b *Backend) Calls(method, path string) []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Call
	for _, c := range b.calls {
		if (method == "" || c.Method == method) && (path == "" || c.Path == path) {
			out = append(out, c)
		}
	}
	return out
}

// AddFile stores a file record and returns its id.
func (b *Backend) AddFile(data map[string]any) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addFileLocked(data)
}

// AddLink stores a share link for fileID.
func (b *Backend) AddLink(shareID string, fileID int, expiresAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.links[shareID] = &link{ShareID: shareID, FileID: fileID, ExpiresAt: expiresAt.Unix()}
}

func (b *Backend) FileCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.files)
}

func (b *Backend) LinkCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.links)
}

func (b *Backend) addFileLocked(data map[string]any) int {
	b.nextID++
	id := b.nextID
	cp := make(map[string]any, len(data)+1)
	for k, v := range data {
		cp[k] = v
	}
	cp["fileId"] = id
	b.files[id] = &file{ID: id, Data: cp}
	return id
}

func (b *Backend) router() *gin.Engine {
	r := gin.New()
	r.Use(b.record(), b.failures())

	r.POST("/login", b.login)
	r.POST("/signup", b.signup)
	r.POST("/verify", b.verify)
	r.GET("/files/shared/:id", b.sharedFile)

	auth := r.Group("/", b.requireAuth())
	auth.POST("/logout", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	auth.GET("/getUser", b.getUser)
	auth.POST("/files", b.registerFile)
	auth.GET("/files/user", b.userFiles)
	auth.GET("/files/:id", b.lookupFile)
	auth.DELETE("/files/:id", b.deleteFile)
	auth.POST("/files/share", b.share)
	auth.GET("/files/shared/links", b.listLinks)
	auth.DELETE("/files/shared/:id", b.deleteLink)
	return r
}

func (b *Backend) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		b.mu.Lock()
		b.calls = append(b.calls, Call{
			Method: c.Request.Method,
			Path:   c.Request.URL.Path,
			Auth:   c.GetHeader("Authorization"),
			Body:   body,
		})
		b.mu.Unlock()
		c.Next()
	}
}

func (b *Backend) failures() gin.HandlerFunc {
	return func(c *gin.Context) {
		f, ok := b.Fail[c.Request.Method+" "+c.FullPath()]
		if !ok {
			c.Next()
			return
		}
		if f.Text {
			c.String(f.Status, f.Message)
		} else {
			c.JSON(f.Status, gin.H{"error": f.Message})
		}
		c.Abort()
	}
}

func (b *Backend) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer "+b.SessionToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (b *Backend) login(c *gin.Context) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.Email != b.Email || in.Password != b.Password {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": b.SessionToken, "userId": b.UserID})
}

func (b *Backend) signup(c *gin.Context) {
	var in struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": "pending-" + in.Username, "message": "check your inbox"})
}

func (b *Backend) verify(c *gin.Context) {
	var in struct {
		OTP string `json:"otp"`
		ID  string `json:"id"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.OTP != b.OTP {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": b.SessionToken, "userId": b.UserID, "message": "verified"})
}

func (b *Backend) getUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"id": b.UserID, "username": "ann", "email": b.Email, "plan": "free"})
}

func (b *Backend) registerFile(c *gin.Context) {
	var in map[string]any
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	b.mu.Lock()
	id := b.addFileLocked(in)
	out := b.render(b.files[id].Data)
	b.mu.Unlock()
	c.JSON(http.StatusCreated, out)
}

func (b *Backend) userFiles(c *gin.Context) {
	b.mu.Lock()
	ids := make([]int, 0, len(b.files))
	for id := range b.files {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, b.render(b.files[id].Data))
	}
	b.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (b *Backend) fileParam(c *gin.Context) (*file, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}
	f, ok := b.files[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return nil, false
	}
	return f, true
}

func (b *Backend) lookupFile(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.fileParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, b.render(f.Data))
}

func (b *Backend) deleteFile(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.fileParam(c)
	if !ok {
		return
	}
	delete(b.files, f.ID)
	for id, l := range b.links {
		if l.FileID == f.ID {
			delete(b.links, id)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "file deleted"})
}

func (b *Backend) share(c *gin.Context) {
	var in struct {
		FileID          int     `json:"fileId"`
		ExpirationHours float64 `json:"expirationHours"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.ExpirationHours <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fileId and expirationHours are required"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.files[in.FileID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	b.nextSh++
	now := b.Now()
	l := &link{
		ShareID:   fmt.Sprintf("sh%03d", b.nextSh),
		FileID:    f.ID,
		ExpiresAt: now.Add(time.Duration(in.ExpirationHours * float64(time.Hour))).Unix(),
		CreatedAt: now.UTC().Format(time.RFC3339),
	}
	b.links[l.ShareID] = l
	c.JSON(http.StatusCreated, b.renderLink(l))
}

func (b *Backend) listLinks(c *gin.Context) {
	if b.RawLinks != nil {
		c.JSON(http.StatusOK, b.RawLinks)
		return
	}
	b.mu.Lock()
	ids := make([]string, 0, len(b.links))
	for id := range b.links {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, b.renderLink(b.links[id]))
	}
	b.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (b *Backend) sharedFile(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.links[c.Param("id")]
	if !ok || (l.ExpiresAt != 0 && l.ExpiresAt < b.Now().Unix()) {
		c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
		return
	}
	f, ok := b.files[l.FileID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.JSON(http.StatusOK, b.render(f.Data))
}

func (b *Backend) deleteLink(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.links[c.Param("id")]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
		return
	}
	delete(b.links, c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (b *Backend) render(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if b.LowercaseHash && strings.EqualFold(k, "ipfsHash") {
			k = "ipfshash"
		}
		out[k] = v
	}
	return out
}

func (b *Backend) renderLink(l *link) map[string]any {
	name := ""
	if f, ok := b.files[l.FileID]; ok {
		name, _ = f.Data["fileName"].(string)
	}
	return map[string]any{
		"shareId":        l.ShareID,
		"fileId":         l.FileID,
		"fileName":       name,
		"expirationTime": l.ExpiresAt,
		"createdAt":      l.CreatedAt,
	}
}
