// Package pinning stores file content in a content-addressed pin store.
//
// Two backends are registered: "pinata" talks to a Pinata-compatible HTTP
// API, "s3" keeps objects in an S3-compatible bucket keyed by their CID.
// Backends are created by name through New, like the other pluggable stores
// in this module.
package pinning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ipfs/go-cid"
)

var ErrInvalidHash = errors.New("invalid content address")

// PinResult describes pinned content.
type PinResult struct {
	Hash      string
	Size      int64
	Timestamp time.Time
}

// Pinner pins and unpins content.
type Pinner interface {
	Pin(ctx context.Context, name string, r io.Reader) (*PinResult, error)
	Unpin(ctx context.Context, hash string) error
}

type Factory func(args any) (Pinner, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

// New creates the pinner registered under typ. args is the backend's
// configuration, any value that encodes to its JSON config.
func New(typ string, args any) (Pinner, error) {
	key := strings.ToLower(strings.TrimSpace(typ))
	if key == "" {
		return nil, fmt.Errorf("pinning.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported pinning type: %s", typ)
	}
	return factory(args)
}

func decodeConfig(args any, dst any) error {
	if args == nil {
		return fmt.Errorf("pinning config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode pinning config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode pinning config: %w", err)
	}
	return nil
}

// ValidateHash checks that hash parses as a CID (v0 or v1).
func ValidateHash(hash string) error {
	if _, err := cid.Decode(hash); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidHash, hash, err)
	}
	return nil
}

// IPFSURL is the url stored with file metadata.
func IPFSURL(hash string) string {
	return "ipfs://" + hash
}
