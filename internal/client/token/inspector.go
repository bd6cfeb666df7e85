package token

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultCacheSize = 16
	defaultCacheTTL  = 10 * time.Minute
)

type decoded struct {
	exp time.Time
	ok  bool
	err error
}

// Inspector evaluates tokens against an injectable clock. Decoded expiries
// are memoized per token string; the comparison with the current time is
// always recomputed.
type Inspector struct {
	now   func() time.Time
	cache *expirable.LRU[string, decoded]
}

type Option func(*Inspector)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(i *Inspector) { i.now = now }
}

// WithCache sets the size and TTL of the decoded-expiry cache. A size of 0
// disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(i *Inspector) {
		if size <= 0 || ttl <= 0 {
			i.cache = nil
			return
		}
		i.cache = expirable.NewLRU[string, decoded](size, nil, ttl)
	}
}

func NewInspector(opts ...Option) *Inspector {
	i := &Inspector{
		now:   time.Now,
		cache: expirable.NewLRU[string, decoded](defaultCacheSize, nil, defaultCacheTTL),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IsExpired reports whether tok is expired at the inspector's current time.
func (i *Inspector) IsExpired(tok string) bool {
	d := i.decode(tok)
	return expired(d.exp, d.ok, d.err, i.now())
}

// ExpiresAt returns the decoded expiry, see Expiry.
func (i *Inspector) ExpiresAt(tok string) (time.Time, bool, error) {
	d := i.decode(tok)
	return d.exp, d.ok, d.err
}

// Now returns the inspector's notion of the current time.
func (i *Inspector) Now() time.Time {
	return i.now()
}

func (i *Inspector) decode(tok string) decoded {
	if i.cache != nil && tok != "" {
		if d, ok := i.cache.Get(tok); ok {
			return d
		}
	}
	exp, ok, err := Expiry(tok)
	d := decoded{exp: exp, ok: ok, err: err}
	if i.cache != nil && tok != "" {
		i.cache.Add(tok, d)
	}
	return d
}
