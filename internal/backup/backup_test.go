package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropcircles/dropcircles-server/internal/domain"
	"github.com/dropcircles/dropcircles-server/internal/store"
)

func setupBackup(t *testing.T, keep int) (*Service, *store.Store, string) {
	t.Helper()

	dir := t.TempDir()

	st, err := store.New(filepath.Join(dir, "db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	backupDir := filepath.Join(dir, "backups")
	svc, err := NewService(st, backupDir, keep, nil)
	require.NoError(t, err)

	return svc, st, backupDir
}

func TestRunWritesSnapshot(t *testing.T) {
	svc, st, backupDir := setupBackup(t, 3)

	user := &domain.User{Email: "artist@example.com", ArtistName: "The Static"}
	user.ID = "usr-backup"
	user.InitTimestamps()
	require.NoError(t, st.Users.Create(context.Background(), user.ID, user))

	path, err := svc.Run()
	require.NoError(t, err)
	assert.Equal(t, backupDir, filepath.Dir(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	// No temp file left behind.
	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestPruneKeepsNewest(t *testing.T) {
	svc, _, backupDir := setupBackup(t, 2)

	// Snapshot names have second resolution; fake older runs instead of
	// sleeping through three of them.
	for _, name := range []string{"20240101-000000.bak", "20240102-000000.bak"} {
		require.NoError(t, os.WriteFile(filepath.Join(backupDir, name), []byte("old"), 0o644))
	}

	_, err := svc.Run()
	require.NoError(t, err)

	names, err := svc.List()
	require.NoError(t, err)
	require.Len(t, names, 2)

	// The oldest snapshot is gone, the newest survives.
	assert.NotContains(t, names, "20240101-000000.bak")
	assert.Contains(t, names, "20240102-000000.bak")
	assert.True(t, names[0] > names[1], "List returns newest first")
}

func TestListIgnoresStrays(t *testing.T) {
	svc, _, backupDir := setupBackup(t, 3)

	require.NoError(t, os.WriteFile(filepath.Join(backupDir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(backupDir, "subdir"), 0o755))

	names, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}
