package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Loader builds a Config from defaults, an optional JSON file, dotenv files
// with the process environment, and finally the flags bound to a FlagSet.
// Only flags the user actually set override earlier sources.
type Loader struct {
	fs  *pflag.FlagSet
	cfg Config

	configFile string
	envFiles   []string
}

// BindFlags registers the client flags on fs and returns a Loader reading
// them back after parsing.
func BindFlags(fs *pflag.FlagSet) *Loader {
	l := &Loader{fs: fs}
	l.cfg.LoadDefaults()
	c := &l.cfg

	fs.StringVarP(&l.configFile, "config", "c", "", "path to JSON config file")
	fs.StringSliceVar(&l.envFiles, "env-file", []string{".env", ".env.local"}, "dotenv files to read")

	fs.StringVarP(&c.APIURL, "api-url", "a", c.APIURL, "backend API base URL")
	fs.StringVar(&c.PublicAPIURL, "public-api-url", c.PublicAPIURL, "base URL for public share fetches (defaults to --api-url)")
	fs.DurationVar(&c.RequestTimeout, "timeout", c.RequestTimeout, "HTTP request timeout")
	fs.DurationVarP(&c.SessionCheckInterval, "session-interval", "i", c.SessionCheckInterval, "session validation interval")
	fs.StringVar(&c.DataDir, "data-dir", c.DataDir, "local data directory")
	fs.StringVar(&c.StorageDSN, "db", c.StorageDSN, "SQLite DSN overriding the data directory file")
	fs.StringVar(&c.Pinning.Type, "pinning", c.Pinning.Type, "pin store: pinata or s3")
	fs.StringVar(&c.Pinning.Pinata.JWT, "pinata-jwt", c.Pinning.Pinata.JWT, "Pinata JWT")
	fs.StringVar(&c.Pinning.S3.Bucket, "s3-bucket", c.Pinning.S3.Bucket, "S3 bucket for the s3 pin store")
	fs.StringVar(&c.Pinning.S3.Endpoint, "s3-endpoint", c.Pinning.S3.Endpoint, "S3-compatible endpoint")
	fs.BoolVar(&c.ShareListingFallback, "share-fallback", c.ShareListingFallback, "synthesize preview links when the backend has no share listing")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format: json or text")
	fs.StringVar(&c.MetricsFile, "metrics-file", c.MetricsFile, "write client metrics to this file on exit")
	return l
}

// Load resolves the configuration. It must be called after the FlagSet has
// been parsed.
func (l *Loader) Load() (*Config, error) {
	return l.load(lookupEnv)
}

func (l *Loader) load(lookup func(string) (string, bool)) (*Config, error) {
	var cfg Config
	cfg.LoadDefaults()

	if l.configFile != "" {
		if err := parseJSON(&cfg, l.configFile); err != nil {
			return nil, err
		}
	}

	env, err := readEnv(l.envFiles, lookup)
	if err != nil {
		return nil, err
	}
	if err := applyEnv(&cfg, env); err != nil {
		return nil, err
	}

	l.applyFlags(&cfg)
	cfg.Pinning.Type = strings.ToLower(cfg.Pinning.Type)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (l *Loader) applyFlags(cfg *Config) {
	flags := map[string]func(){
		"api-url":          func() { cfg.APIURL = l.cfg.APIURL },
		"public-api-url":   func() { cfg.PublicAPIURL = l.cfg.PublicAPIURL },
		"timeout":          func() { cfg.RequestTimeout = l.cfg.RequestTimeout },
		"session-interval": func() { cfg.SessionCheckInterval = l.cfg.SessionCheckInterval },
		"data-dir":         func() { cfg.DataDir = l.cfg.DataDir },
		"db":               func() { cfg.StorageDSN = l.cfg.StorageDSN },
		"pinning":          func() { cfg.Pinning.Type = l.cfg.Pinning.Type },
		"pinata-jwt":       func() { cfg.Pinning.Pinata.JWT = l.cfg.Pinning.Pinata.JWT },
		"s3-bucket":        func() { cfg.Pinning.S3.Bucket = l.cfg.Pinning.S3.Bucket },
		"s3-endpoint":      func() { cfg.Pinning.S3.Endpoint = l.cfg.Pinning.S3.Endpoint },
		"share-fallback":   func() { cfg.ShareListingFallback = l.cfg.ShareListingFallback },
		"log-level":        func() { cfg.LogLevel = l.cfg.LogLevel },
		"log-format":       func() { cfg.LogFormat = l.cfg.LogFormat },
		"metrics-file":     func() { cfg.MetricsFile = l.cfg.MetricsFile },
	}
	for name, apply := range flags {
		if l.fs.Changed(name) {
			apply()
		}
	}
}
