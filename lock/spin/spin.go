// Package spin provides an in-process lock.Framework whose locks busy-wait
// on acquisition, mirroring the fixed-capacity lock tables of native host
// frameworks. It is suitable for single-process hosts and for exercising
// lock lifecycle code without a cross-process backend.
package spin

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lockstate/lockstate/lock"
)

// compile-time interface check.
var _ lock.Framework = (*Framework)(nil)

// Framework is a fixed-capacity supply of spinning locks. Handles index a
// slot table; destroyed slots are reused by later CreateLock calls.
type Framework struct {
	mu   sync.Mutex
	held []uint32 // 1 while the lock at the slot is held
	used []bool   // slot is allocated
}

// New returns a Framework able to construct up to capacity locks at a time.
func New(capacity uint32) *Framework {
	return &Framework{
		held: make([]uint32, capacity),
		used: make([]bool, capacity),
	}
}

// CreateLock allocates a lock slot. Once all slots are in use it fails
// with StatusInsufficientResources until a slot is destroyed.
func (f *Framework) CreateLock(_ *lock.Attributes) (lock.Handle, lock.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.used {
		if !f.used[i] {
			f.used[i] = true
			atomic.StoreUint32(&f.held[i], 0)
			logrus.Debugf("Created spin lock %d", i+1)
			return lock.Handle(i + 1), lock.StatusSuccess
		}
	}
	return 0, lock.StatusInsufficientResources
}

// AcquireLock spins until the lock becomes available, yielding the
// processor between attempts.
func (f *Framework) AcquireLock(h lock.Handle) {
	held := &f.held[h-1]
	for !atomic.CompareAndSwapUint32(held, 0, 1) {
		runtime.Gosched()
	}
}

// ReleaseLock relinquishes a held lock.
func (f *Framework) ReleaseLock(h lock.Handle) {
	atomic.StoreUint32(&f.held[h-1], 0)
}

// DestroyLock returns the slot to the framework for reuse. The lock must
// not be held.
func (f *Framework) DestroyLock(h lock.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if h == 0 || int(h) > len(f.used) || !f.used[h-1] {
		return errors.Wrapf(lock.ErrNoSuchLock, "destroying spin lock %d", h)
	}
	f.used[h-1] = false
	logrus.Debugf("Destroyed spin lock %d", h)
	return nil
}
