package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/pinshare/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"config", "env-file", "api-url", "session-interval", "pinning", "metrics-file"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestCheckCmd_NoSession(t *testing.T) {
	dir := t.TempDir()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{
		"check",
		"--env-file", "",
		"--db", filepath.Join(dir, "client.db"),
		"--log-level", "error",
	})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, out.String(), "not authenticated")
	assert.NotContains(t, out.String(), common.SessionExpiredMessage)
	assert.NotContains(t, out.String(), "Type 'login'")
}

func TestSharedCmd_RequiresID(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"shared", "--env-file", ""})

	require.Error(t, cmd.ExecuteContext(context.Background()))
}
