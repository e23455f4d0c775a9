package preprocess

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFilename is the advisory lock file guarding a bank during a build.
const LockFilename = ".readbank.lock"

// ErrBankLocked reports that another build holds the bank directory.
var ErrBankLocked = errors.New("preprocess: bank directory locked by another build")

// acquireLock takes the bank directory's build lock without blocking.
func acquireLock(dir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(dir, LockFilename))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking bank directory: %w", err)
	}
	if !locked {
		return nil, ErrBankLocked
	}
	return lock, nil
}
