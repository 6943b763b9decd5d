package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedFS(kind string, seen *string) fsTypeFunc {
	return func(path string) (string, error) {
		if seen != nil {
			*seen = path
		}
		return kind, nil
	}
}

func TestCheckLocalDiskAcceptsLocal(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "quickpanel.db")
	assert.NoError(t, checkLocalDisk(dbPath, fixedFS("ext4", nil)))
}

func TestCheckLocalDiskRejectsShare(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "quickpanel.db")
	err := checkLocalDisk(dbPath, fixedFS("SMBFS", nil))
	require.Error(t, err)

	var remote *RemoteFilesystemError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, dbPath, remote.Path)
	assert.Contains(t, err.Error(), "state.path")
	assert.Contains(t, err.Error(), "--db")
}

func TestCheckLocalDiskInspectsExistingParent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	var seen string
	err := checkLocalDisk(filepath.Join(root, "a", "b", "quickpanel.db"), fixedFS("apfs", &seen))
	require.NoError(t, err)
	assert.Equal(t, root, seen)
}

func TestCheckLocalDiskDetectorError(t *testing.T) {
	t.Parallel()

	err := checkLocalDisk(filepath.Join(t.TempDir(), "x.db"), func(string) (string, error) {
		return "", errors.New("boom")
	})
	assert.ErrorContains(t, err, "boom")
}

func TestIsRemoteFS(t *testing.T) {
	t.Parallel()

	for kind, want := range map[string]bool{
		"nfs":    true,
		" CIFS ": true,
		"webdav": true,
		"ext4":   false,
		"0x6969": false,
		"":       false,
	} {
		assert.Equal(t, want, isRemoteFS(kind), kind)
	}
}
