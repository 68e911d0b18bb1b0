package lock

// RawLock owns exactly one native lock resource and forwards acquire and
// release calls to the framework that constructed it. It performs no state
// checking of its own - acquiring twice from the same goroutine or
// releasing an unheld lock is undefined behavior at the native layer.
// Callers that want those misuses rejected should drive the lock through
// SafeLock instead.
//
// A RawLock is never destroyed by this package; the framework that owns
// the resource is responsible for teardown.
type RawLock struct {
	fw Framework
	h  Handle

	// gen counts successful SafeLock transitions against this resource.
	// Each live SafeLock carries the generation it was issued with, so a
	// stale copy retained after a transition no longer matches and is
	// rejected instead of reaching the native lock.
	gen uint64
}

// NewRawLock constructs a native lock resource from the given framework,
// forwarding attr uninterpreted. If the framework refuses construction the
// returned error is the native Status code. On success the lock's internal
// handle is non-zero and valid for the lifetime of the value.
func NewRawLock(fw Framework, attr *Attributes) (*RawLock, error) {
	h, status := fw.CreateLock(attr)
	if status != StatusSuccess {
		return nil, status
	}
	return &RawLock{fw: fw, h: h}, nil
}

// Acquire takes the native lock for the calling goroutine, blocking (or
// spinning, depending on the framework) until it is available.
func (l *RawLock) Acquire() {
	l.fw.AcquireLock(l.h)
}

// Release relinquishes the native lock.
func (l *RawLock) Release() {
	l.fw.ReleaseLock(l.h)
}

// Handle returns the native resource reference. The handle is returned by
// value; the lock's own reference cannot be mutated through it.
func (l *RawLock) Handle() Handle {
	return l.h
}
