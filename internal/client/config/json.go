package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/pinshare/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "60s" or as integer nanoseconds. Zero values leave the
// corresponding Config field unchanged.
type JsonConfig struct {
	APIURL               string         `json:"api_url"`
	PublicAPIURL         string         `json:"public_api_url"`
	RequestTimeout       timex.Duration `json:"request_timeout"`
	SessionCheckInterval timex.Duration `json:"session_check_interval"`
	DataDir              string         `json:"data_dir"`
	StorageDSN           string         `json:"storage_dsn"`
	ShareListingFallback *bool          `json:"share_listing_fallback"`
	LogLevel             string         `json:"log_level"`
	LogFormat            string         `json:"log_format"`
	MetricsFile          string         `json:"metrics_file"`

	Pinning struct {
		Type   string `json:"type"`
		Pinata struct {
			APIURL string `json:"api_url"`
			JWT    string `json:"jwt"`
		} `json:"pinata"`
		S3 struct {
			Endpoint  string `json:"endpoint"`
			Region    string `json:"region"`
			Bucket    string `json:"bucket"`
			AccessKey string `json:"access_key"`
			SecretKey string `json:"secret_key"`
			Prefix    string `json:"prefix"`
		} `json:"s3"`
	} `json:"pinning"`
}

// parseJSON overlays cfg with the values of the JSON file at path.
func parseJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.APIURL, jc.APIURL)
	setString(&cfg.PublicAPIURL, jc.PublicAPIURL)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.SessionCheckInterval, jc.SessionCheckInterval)
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.StorageDSN, jc.StorageDSN)
	if jc.ShareListingFallback != nil {
		cfg.ShareListingFallback = *jc.ShareListingFallback
	}
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.MetricsFile, jc.MetricsFile)

	p := &cfg.Pinning
	setString(&p.Type, jc.Pinning.Type)
	setString(&p.Pinata.APIURL, jc.Pinning.Pinata.APIURL)
	setString(&p.Pinata.JWT, jc.Pinning.Pinata.JWT)
	setString(&p.S3.Endpoint, jc.Pinning.S3.Endpoint)
	setString(&p.S3.Region, jc.Pinning.S3.Region)
	setString(&p.S3.Bucket, jc.Pinning.S3.Bucket)
	setString(&p.S3.AccessKey, jc.Pinning.S3.AccessKey)
	setString(&p.S3.SecretKey, jc.Pinning.S3.SecretKey)
	setString(&p.S3.Prefix, jc.Pinning.S3.Prefix)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
