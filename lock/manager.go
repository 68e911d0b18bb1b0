package lock

import (
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Manager allocates native lock resources from a single Framework and
// tracks them by UUID so separate components can retrieve the same lock.
// All locks with a given ID refer to the same underlying resource.
//
// Manager owns destruction, which RawLock and SafeLock deliberately do not:
// Free and Close are the only paths in this package that invoke the
// framework's destroy entry point.
type Manager struct {
	fw    Framework
	mu    sync.Mutex
	locks map[string]*RawLock
}

// NewManager returns a Manager allocating from fw.
func NewManager(fw Framework) *Manager {
	return &Manager{
		fw:    fw,
		locks: make(map[string]*RawLock),
	}
}

// Allocate constructs a new native lock and returns its ID together with
// the lock. The ID is guaranteed unique within the manager.
func (m *Manager) Allocate(attr *Attributes) (string, *RawLock, error) {
	l, err := NewRawLock(m.fw, attr)
	if err != nil {
		return "", nil, errors.Wrap(err, "allocating lock")
	}
	id := uuid.New().String()

	m.mu.Lock()
	m.locks[id] = l
	m.mu.Unlock()

	return id, l, nil
}

// Retrieve returns the lock with the given ID. The returned lock is the
// same lock handed out by the Allocate call that produced the ID.
func (m *Manager) Retrieve(id string) (*RawLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[id]
	if !ok {
		return nil, errors.Wrapf(ErrNoSuchLock, "retrieving lock %s", id)
	}
	return l, nil
}

// Free destroys the lock with the given ID, returning its resources to the
// framework. The lock must not be held.
func (m *Manager) Free(id string) error {
	m.mu.Lock()
	l, ok := m.locks[id]
	delete(m.locks, id)
	m.mu.Unlock()

	if !ok {
		return errors.Wrapf(ErrNoSuchLock, "freeing lock %s", id)
	}
	if err := m.fw.DestroyLock(l.Handle()); err != nil {
		return errors.Wrapf(err, "freeing lock %s", id)
	}
	return nil
}

// Close frees every lock the manager still tracks. Destruction failures
// are logged and aggregated; the remaining locks are freed regardless.
// Close must not be called while any managed lock is held.
func (m *Manager) Close() error {
	m.mu.Lock()
	locks := m.locks
	m.locks = make(map[string]*RawLock)
	m.mu.Unlock()

	var merr *multierror.Error
	for id, l := range locks {
		if err := m.fw.DestroyLock(l.Handle()); err != nil {
			logrus.Errorf("Freeing lock %s: %v", id, err)
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}
