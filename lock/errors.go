package lock

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyCreated indicates Create was called on a lock whose native
	// resource already exists.
	ErrAlreadyCreated = errors.New("lock already created")
	// ErrCreateFailed indicates the framework refused to construct the
	// native resource.
	ErrCreateFailed = errors.New("native lock creation failed")
	// ErrAlreadyHeld indicates Acquire was called on a lock that is held.
	ErrAlreadyHeld = errors.New("lock already held")
	// ErrUninitialized indicates the lock has no native resource yet.
	ErrUninitialized = errors.New("lock not initialized")
	// ErrNotHeld indicates Release was called on a lock that is not held.
	ErrNotHeld = errors.New("lock not held")
	// ErrConsumed indicates an operation was called on a stale SafeLock
	// copy that was already consumed by a successful transition.
	ErrConsumed = errors.New("lock value already consumed")
	// ErrNoSuchLock indicates the requested lock does not exist.
	ErrNoSuchLock = errors.New("no such lock")
)

// Error is returned by SafeLock operations when the requested transition is
// invalid for the lock's current state, or when native construction fails.
// It embeds the lock in its prior state so the caller regains ownership and
// may retry a different operation; no failure path strands the resource.
//
// Use errors.Is against the sentinel errors above to discriminate the
// failure, and errors.As to recover the embedded lock.
type Error struct {
	// Op is the operation that failed: "create", "acquire", or "release".
	Op string
	// Err is one of the sentinel errors above.
	Err error
	// Status is the native status code. It is set only when Err is
	// ErrCreateFailed.
	Status Status
	// Lock is the lock exactly as it was before the failed call. It is
	// the zero SafeLock when Err is ErrConsumed: a stale copy never had
	// ownership to return, which remains with the live value.
	Lock SafeLock
}

func (e *Error) Error() string {
	if errors.Is(e.Err, ErrConsumed) {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Status != StatusSuccess {
		return fmt.Sprintf("%s %s lock: %v: %v", e.Op, e.Lock.State(), e.Err, e.Status)
	}
	return fmt.Sprintf("%s %s lock: %v", e.Op, e.Lock.State(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FatalError reports a native acquire or release failure. Those entry
// points carry no error return: a failure there means the host environment
// itself is broken, so frameworks deliver a *FatalError by panicking rather
// than folding it into the recoverable error taxonomy.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal lock failure during %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
