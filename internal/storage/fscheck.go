package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// RemoteFilesystemError reports a database path that lives on a network share.
type RemoteFilesystemError struct {
	Path   string
	FSType string
}

func (e *RemoteFilesystemError) Error() string {
	return fmt.Sprintf("audit log %q is on network filesystem %q: sqlite needs a local disk for locking, set state.path or pass --db",
		e.Path, e.FSType)
}

var remoteFSTypes = []string{"afpfs", "cifs", "nfs", "nfs4", "smb2", "smbfs", "webdav"}

// fsTypeFunc names the filesystem holding an existing path.
type fsTypeFunc func(path string) (string, error)

func checkLocalDisk(path string, fsType fsTypeFunc) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("sqlite path is empty")
	}
	dir, err := existingAncestor(path)
	if err != nil {
		return fmt.Errorf("resolve sqlite path %q: %w", path, err)
	}
	kind, err := fsType(dir)
	if err != nil {
		return fmt.Errorf("detect filesystem of %q: %w", dir, err)
	}
	if isRemoteFS(kind) {
		return &RemoteFilesystemError{Path: path, FSType: kind}
	}
	return nil
}

// existingAncestor walks up from path to the first entry that exists, so a
// database that has not been created yet is checked against its directory.
func existingAncestor(path string) (string, error) {
	p, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	for {
		_, err := os.Stat(p)
		switch {
		case err == nil:
			return p, nil
		case !errors.Is(err, os.ErrNotExist):
			return "", err
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", fmt.Errorf("no existing parent for %q", path)
		}
		p = parent
	}
}

func isRemoteFS(kind string) bool {
	return slices.Contains(remoteFSTypes, strings.ToLower(strings.TrimSpace(kind)))
}
