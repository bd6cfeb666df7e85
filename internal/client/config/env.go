package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by the client. PINATA_JWT and VITE_PINATA_JWT
// are accepted for compatibility with existing .env files.
const (
	EnvAPIURL        = "PINSHARE_API_URL"
	EnvPublicAPIURL  = "PINSHARE_PUBLIC_API_URL"
	EnvPinning       = "PINSHARE_PINNING"
	EnvPinataURL     = "PINSHARE_PINATA_URL"
	EnvPinataJWT     = "PINSHARE_PINATA_JWT"
	EnvS3Endpoint    = "PINSHARE_S3_ENDPOINT"
	EnvS3Region      = "PINSHARE_S3_REGION"
	EnvS3Bucket      = "PINSHARE_S3_BUCKET"
	EnvS3AccessKey   = "PINSHARE_S3_ACCESS_KEY"
	EnvS3SecretKey   = "PINSHARE_S3_SECRET_KEY"
	EnvListFallback  = "PINSHARE_SHARE_LISTING_FALLBACK"
	EnvLogLevel      = "PINSHARE_LOG_LEVEL"
	EnvLogFormat     = "PINSHARE_LOG_FORMAT"
	envPinataJWTAlt  = "PINATA_JWT"
	envPinataJWTVite = "VITE_PINATA_JWT"
)

// readEnv merges the dotenv files in order, later files overriding earlier
// ones and missing files skipped, then overlays the process environment.
func readEnv(files []string, lookup func(string) (string, bool)) (map[string]string, error) {
	env := map[string]string{}
	for _, f := range files {
		if f == "" {
			continue
		}
		vals, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read env file %s: %w", f, err)
		}
		for k, v := range vals {
			env[k] = v
		}
	}

	for _, k := range []string{
		EnvAPIURL, EnvPublicAPIURL, EnvPinning, EnvPinataURL, EnvPinataJWT,
		EnvS3Endpoint, EnvS3Region, EnvS3Bucket, EnvS3AccessKey, EnvS3SecretKey,
		EnvListFallback, EnvLogLevel, EnvLogFormat, envPinataJWTAlt, envPinataJWTVite,
	} {
		if v, ok := lookup(k); ok {
			env[k] = v
		}
	}
	return env, nil
}

func applyEnv(cfg *Config, env map[string]string) error {
	setString(&cfg.APIURL, env[EnvAPIURL])
	setString(&cfg.PublicAPIURL, env[EnvPublicAPIURL])
	setString(&cfg.Pinning.Type, env[EnvPinning])
	setString(&cfg.Pinning.Pinata.APIURL, env[EnvPinataURL])
	setString(&cfg.LogLevel, env[EnvLogLevel])
	setString(&cfg.LogFormat, env[EnvLogFormat])

	for _, k := range []string{envPinataJWTVite, envPinataJWTAlt, EnvPinataJWT} {
		setString(&cfg.Pinning.Pinata.JWT, env[k])
	}

	s3 := &cfg.Pinning.S3
	setString(&s3.Endpoint, env[EnvS3Endpoint])
	setString(&s3.Region, env[EnvS3Region])
	setString(&s3.Bucket, env[EnvS3Bucket])
	setString(&s3.AccessKey, env[EnvS3AccessKey])
	setString(&s3.SecretKey, env[EnvS3SecretKey])

	if v := env[EnvListFallback]; v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvListFallback, err)
		}
		cfg.ShareListingFallback = b
	}
	return nil
}

var lookupEnv = os.LookupEnv
