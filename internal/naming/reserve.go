package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// Reserver claims output paths atomically. It serializes goroutines with a
// mutex and other processes with a flock keyed by the output directory, then
// creates the chosen file with O_EXCL so the claim survives until the muxer
// opens it. Lock files live in the runtime directory, never next to outputs.
type Reserver struct {
	mu sync.Mutex
}

// NewReserver creates a ready-to-use reserver.
func NewReserver() *Reserver {
	return &Reserver{}
}

// Reserve resolves and creates an empty placeholder for input's output in dir.
func (r *Reserver) Reserve(input, dir string) (string, error) {
	path, err := lockPath(dir)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lock := flock.New(path)
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("lock output directory %s: %w", dir, err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	return OutputPathFor(input, dir, claim)
}

// claim creates path exclusively. It reports the path taken when it
// already exists.
func claim(path string) (bool, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return true, nil
		}
		return false, fmt.Errorf("reserve output %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return false, fmt.Errorf("close reserved output %s: %w", path, err)
	}
	return false, nil
}

// Release removes a reserved placeholder that nothing was written to. It
// reports whether the file was removed; non-empty files are left alone.
func Release(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat reserved output %s: %w", path, err)
	}
	if !info.Mode().IsRegular() || info.Size() > 0 {
		return false, nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("release reserved output %s: %w", path, err)
	}
	return true, nil
}

// lockPath names the lock file guarding dir. It sits in $XDG_RUNTIME_DIR,
// or the system temp directory, under a hash of dir's absolute path.
func lockPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output directory %s: %w", dir, err)
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "reorient-"+hex.EncodeToString(sum[:8])+".lock"), nil
}
