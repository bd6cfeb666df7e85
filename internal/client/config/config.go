package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/pinshare/internal/filex"
)

const (
	PinningPinata = "pinata"
	PinningS3     = "s3"

	storageFile = "pinshare.db"
)

type PinataConfig struct {
	APIURL string
	JWT    string
}

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Prefix    string
}

// PinningConfig selects the pin store and carries the settings of each
// backend; only the selected one is used.
type PinningConfig struct {
	Type   string
	Pinata PinataConfig
	S3     S3Config
}

// Config holds runtime settings for the PinShare client.
//
// Units: RequestTimeout and SessionCheckInterval are time.Duration values.
type Config struct {
	APIURL string
	// PublicAPIURL serves unauthenticated share fetches; empty means APIURL.
	PublicAPIURL         string
	RequestTimeout       time.Duration
	SessionCheckInterval time.Duration

	DataDir string
	// StorageDSN overrides the SQLite file under DataDir.
	StorageDSN string

	Pinning PinningConfig

	// ShareListingFallback synthesizes preview links while the backend has
	// no share listing endpoint.
	ShareListingFallback bool

	LogLevel    string
	// LogFormat is "json" (zap) or "text" (slog).
	LogFormat   string
	MetricsFile string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIURL = "http://localhost:8000"
	c.PublicAPIURL = ""
	c.RequestTimeout = 30 * time.Second
	c.SessionCheckInterval = 60 * time.Second
	c.DataDir = ".pinshare"
	c.StorageDSN = ""
	c.Pinning = PinningConfig{
		Type:   PinningPinata,
		Pinata: PinataConfig{APIURL: "https://api.pinata.cloud"},
		S3:     S3Config{Region: "us-east-1"},
	}
	c.ShareListingFallback = true
	c.LogLevel = "warn"
	c.LogFormat = "json"
	c.MetricsFile = ""
}

// PublicURL is the base URL for public share fetches.
func (c *Config) PublicURL() string {
	if c.PublicAPIURL != "" {
		return c.PublicAPIURL
	}
	return c.APIURL
}

// StoragePath returns the SQLite DSN, creating the data directory when the
// default location is used.
func (c *Config) StoragePath() (string, error) {
	if c.StorageDSN != "" {
		return c.StorageDSN, nil
	}
	dir, err := filex.EnsureSubdDir(c.DataDir)
	if err != nil {
		return "", fmt.Errorf("data dir: %w", err)
	}
	return filepath.Join(dir, storageFile), nil
}

// PinningArgs returns the configuration of the selected pin store in the
// shape the pinning registry decodes.
func (c *Config) PinningArgs() map[string]any {
	switch strings.ToLower(c.Pinning.Type) {
	case PinningS3:
		s := c.Pinning.S3
		return map[string]any{
			"endpoint":   s.Endpoint,
			"region":     s.Region,
			"bucket":     s.Bucket,
			"access_key": s.AccessKey,
			"secret_key": s.SecretKey,
			"prefix":     s.Prefix,
		}
	default:
		return map[string]any{
			"api_url": c.Pinning.Pinata.APIURL,
			"jwt":     c.Pinning.Pinata.JWT,
			"timeout": c.RequestTimeout.String(),
		}
	}
}

func (c *Config) Validate() error {
	var errs []error
	for name, raw := range map[string]string{"api url": c.APIURL, "public api url": c.PublicURL()} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid %s %q", name, raw))
		}
	}
	if c.SessionCheckInterval <= 0 {
		errs = append(errs, errors.New("session check interval must be positive"))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, errors.New("request timeout must not be negative"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unsupported log format %q", c.LogFormat))
	}
	switch strings.ToLower(c.Pinning.Type) {
	case PinningPinata, PinningS3:
	default:
		errs = append(errs, fmt.Errorf("unsupported pinning type %q", c.Pinning.Type))
	}
	return errors.Join(errs...)
}
