package orchestrator

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FS is the filesystem surface a scan needs. The orchestrator is the
// only component that touches the disk; scanners get bytes. Resolve
// must evaluate symlinks so the traversal guard sees real locations,
// which is why this is a local interface rather than a generic
// filesystem abstraction.
type FS interface {
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	// Resolve returns the absolute path with all symlinks evaluated.
	Resolve(path string) (string, error)
}

// OSFileSystem is the default FS backed by the real filesystem.
type OSFileSystem struct{}

func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OSFileSystem) Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
