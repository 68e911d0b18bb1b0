// Package file provides a lock.Framework backed by flock(2) on lock files
// in a dedicated directory, giving mutual exclusion across processes that
// share the directory.
package file

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lockstate/lockstate/lock"
)

// compile-time interface check.
var _ lock.Framework = (*Framework)(nil)

// Framework constructs locks backed by files in a single directory. Lock
// files are created exclusively, so two frameworks sharing a directory can
// never construct the same named lock twice.
type Framework struct {
	dir    string
	mu     sync.Mutex
	next   lock.Handle
	flocks map[lock.Handle]*flock.Flock
}

// New sets up a directory to contain the lock files. It fails if the
// directory already exists.
func New(dir string) (*Framework, error) {
	if _, err := os.Stat(dir); err == nil {
		return nil, errors.Errorf("lock directory %s exists", dir)
	}
	if err := os.MkdirAll(dir, 0o711); err != nil {
		return nil, errors.Wrap(err, "creating lock directory")
	}
	return &Framework{
		dir:    dir,
		flocks: make(map[lock.Handle]*flock.Flock),
	}, nil
}

// Open reuses an existing directory of lock files.
func Open(dir string) (*Framework, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.Wrapf(err, "opening lock directory %s", dir)
	}
	return &Framework{
		dir:    dir,
		flocks: make(map[lock.Handle]*flock.Flock),
	}, nil
}

// CreateLock creates a lock file named after attr.Name, or a fresh UUID if
// no name is given. A name collision fails with StatusInvalidParameter;
// any other I/O failure with StatusInsufficientResources.
func (f *Framework) CreateLock(attr *lock.Attributes) (lock.Handle, lock.Status) {
	name := ""
	if attr != nil {
		name = attr.Name
	}
	if name == "" {
		name = uuid.New().String()
	}
	path := filepath.Join(f.dir, name)

	fd, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		logrus.Errorf("Creating lock file %s: %v", path, err)
		if os.IsExist(err) {
			return 0, lock.StatusInvalidParameter
		}
		return 0, lock.StatusInsufficientResources
	}
	fd.Close()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.flocks[f.next] = flock.New(path)
	return f.next, lock.StatusSuccess
}

// AcquireLock blocks until the file lock is taken. A failure from the
// underlying flock call means the host filesystem is broken and is raised
// as a panic carrying *lock.FatalError.
func (f *Framework) AcquireLock(h lock.Handle) {
	fl := f.get(h)
	if err := fl.Lock(); err != nil {
		panic(&lock.FatalError{Op: "acquire", Err: errors.Wrapf(err, "flock %s", fl.Path())})
	}
}

// ReleaseLock relinquishes the file lock, with the same fatal-on-failure
// contract as AcquireLock.
func (f *Framework) ReleaseLock(h lock.Handle) {
	fl := f.get(h)
	if err := fl.Unlock(); err != nil {
		panic(&lock.FatalError{Op: "release", Err: errors.Wrapf(err, "funlock %s", fl.Path())})
	}
}

func (f *Framework) get(h lock.Handle) *flock.Flock {
	f.mu.Lock()
	defer f.mu.Unlock()

	fl, ok := f.flocks[h]
	if !ok {
		panic(&lock.FatalError{Op: "lookup", Err: errors.Wrapf(lock.ErrNoSuchLock, "handle %d", h)})
	}
	return fl
}

// DestroyLock removes the lock file. The lock must not be held.
func (f *Framework) DestroyLock(h lock.Handle) error {
	f.mu.Lock()
	fl, ok := f.flocks[h]
	delete(f.flocks, h)
	f.mu.Unlock()

	if !ok {
		return errors.Wrapf(lock.ErrNoSuchLock, "destroying lock %d", h)
	}
	if err := os.Remove(fl.Path()); err != nil {
		return errors.Wrapf(err, "removing lock file %s", fl.Path())
	}
	return nil
}

// Close removes every lock file this framework still tracks. Removal
// failures are logged and aggregated; the sweep continues regardless.
// Close must not be called while any of the locks is held.
func (f *Framework) Close() error {
	f.mu.Lock()
	flocks := f.flocks
	f.flocks = make(map[lock.Handle]*flock.Flock)
	f.mu.Unlock()

	var merr *multierror.Error
	for _, fl := range flocks {
		if err := os.Remove(fl.Path()); err != nil {
			logrus.Errorf("Removing lock file %s: %v", fl.Path(), err)
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}
