package filex

import (
	"os"
	"path/filepath"
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

func TestEnsureParentDir_RelativeResolvedAgainstCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureParentDir(filepath.Join("data", "app.db"))
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(cwd, "data", "app.db"), got)

	fi, err := os.Stat(filepath.Join(cwd, "data"))
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureParentDir_AbsoluteAndIdempotent(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a", "b", "app.db")

	got, err := EnsureParentDir(p)
	require.NoError(t, err)
	require.Equal(t, p, got)

	got, err = EnsureParentDir(p)
	require.NoError(t, err)
	require.Equal(t, p, got)

	_, err = os.Stat(p)
	require.True(t, os.IsNotExist(err), "only the directory is created")
}

func TestEnsureParentDir_FailsWhenParentIsFile(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := EnsureParentDir(filepath.Join(blocker, "sub", "app.db"))
	require.Error(t, err)
}
