package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func newLoader(t *testing.T, args ...string) *Loader {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	l := BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return l
}

func TestLoader_Defaults(t *testing.T) {
	l := newLoader(t, "--env-file", "")
	cfg, err := l.load(envLookup(nil))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, 60*time.Second, cfg.SessionCheckInterval)
}

func TestLoader_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTempJSON(t, dir, "cfg.json", map[string]any{
		"api_url":   "https://json.example.com",
		"log_level": "debug",
		"data_dir":  "/var/lib/pinshare",
	})
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(
		"PINSHARE_API_URL=https://dotenv.example.com\n"+
			"VITE_PINATA_JWT=vite-jwt\n"+
			"PINSHARE_LOG_LEVEL=warn\n"), 0o600))

	l := newLoader(t, "-c", cfgPath, "--env-file", envPath, "--log-level", "error", "--log-format", "text")
	cfg, err := l.load(envLookup(map[string]string{
		EnvAPIURL: "https://env.example.com",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.APIURL, "process env beats dotenv and json")
	assert.Equal(t, "vite-jwt", cfg.Pinning.Pinata.JWT)
	assert.Equal(t, "error", cfg.LogLevel, "explicit flag wins")
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "/var/lib/pinshare", cfg.DataDir, "unset flag keeps json value")
}

func TestLoader_JWTAliases(t *testing.T) {
	l := newLoader(t, "--env-file", "")
	cfg, err := l.load(envLookup(map[string]string{
		"VITE_PINATA_JWT": "vite",
		"PINATA_JWT":      "plain",
		EnvPinataJWT:      "primary",
	}))
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.Pinning.Pinata.JWT)

	cfg, err = l.load(envLookup(map[string]string{"PINATA_JWT": "plain", "VITE_PINATA_JWT": "vite"}))
	require.NoError(t, err)
	assert.Equal(t, "plain", cfg.Pinning.Pinata.JWT)
}

func TestLoader_MissingEnvFileIgnored(t *testing.T) {
	l := newLoader(t, "--env-file", filepath.Join(t.TempDir(), "nope.env"))
	_, err := l.load(envLookup(nil))
	require.NoError(t, err)
}

func TestLoader_Errors(t *testing.T) {
	t.Run("bad bool", func(t *testing.T) {
		l := newLoader(t, "--env-file", "")
		_, err := l.load(envLookup(map[string]string{EnvListFallback: "maybe"}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), EnvListFallback)
	})

	t.Run("invalid result", func(t *testing.T) {
		l := newLoader(t, "--env-file", "", "--pinning", "ftp")
		_, err := l.load(envLookup(nil))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid config")
	})

	t.Run("missing json", func(t *testing.T) {
		l := newLoader(t, "--env-file", "", "--config", filepath.Join(t.TempDir(), "x.json"))
		_, err := l.load(envLookup(nil))
		require.Error(t, err)
	})
}

func TestLoader_ShareFallbackFlag(t *testing.T) {
	l := newLoader(t, "--env-file", "", "--share-fallback=false")
	cfg, err := l.load(envLookup(map[string]string{EnvListFallback: "true"}))
	require.NoError(t, err)
	assert.False(t, cfg.ShareListingFallback)
}

func TestReadEnv_LaterFilesOverride(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, ".env")
	local := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(base, []byte("PINSHARE_API_URL=https://base.example.com\nPINSHARE_PINNING=s3\n"), 0o600))
	require.NoError(t, os.WriteFile(local, []byte("PINSHARE_API_URL=https://local.example.com\n"), 0o600))

	env, err := readEnv([]string{base, local}, envLookup(nil))
	require.NoError(t, err)
	assert.Equal(t, "https://local.example.com", env[EnvAPIURL])
	assert.Equal(t, "s3", env[EnvPinning])
}
