// Package config loads runtime configuration for the PinShare CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with --config / -c.
//  3. Dotenv files (--env-file, default .env and .env.local) overlaid by the
//     process environment.
//  4. Command-line flags explicitly set by the user.
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "60s" or
// integer nanoseconds:
//
//	{
//	  "api_url": "https://api.example.com",
//	  "session_check_interval": "60s",
//	  "pinning": {"type": "pinata", "pinata": {"jwt": "..."}}
//	}
//
// # Environment
//
// PINSHARE_API_URL, PINSHARE_PUBLIC_API_URL, PINSHARE_PINNING,
// PINSHARE_PINATA_URL, PINSHARE_PINATA_JWT (also PINATA_JWT and
// VITE_PINATA_JWT), PINSHARE_S3_ENDPOINT, PINSHARE_S3_REGION,
// PINSHARE_S3_BUCKET, PINSHARE_S3_ACCESS_KEY, PINSHARE_S3_SECRET_KEY,
// PINSHARE_SHARE_LISTING_FALLBACK, PINSHARE_LOG_LEVEL and
// PINSHARE_LOG_FORMAT.
package config
