package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureSubdDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureSubdDir(".pinshare")
	require.NoError(t, err)

	want := filepath.Join(tmp, ".pinshare")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm(), "data dir must be private")
	}
}

func TestEnsureSubdDir_Absolute(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "nested", "data")

	got, err := EnsureSubdDir(target)
	require.NoError(t, err)
	require.Equal(t, target, got)

	fi, err := os.Stat(target)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureSubdDir_Home(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", tmp)
	}

	got, err := EnsureSubdDir("~/.pinshare")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(tmp, ".pinshare"), got)
}

func TestEnsureSubdDir_Idempotent(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	first, err := EnsureSubdDir(".pinshare")
	require.NoError(t, err)

	second, err := EnsureSubdDir(".pinshare")
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestEnsureSubdDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	require.NoError(t, os.WriteFile(".pinshare", []byte("x"), 0o600))

	_, err := EnsureSubdDir(".pinshare")
	require.Error(t, err, "should fail when a file exists with the same name")
}
