package lock

import "errors"

// Do acquires l, calls fn, and releases the lock again even when fn fails,
// returning the released lock alongside fn's error. It is an opt-in
// convenience over the explicit state machine, not a replacement for it:
// the lock must already be Initialized, and if fn panics the lock stays
// held.
//
// If acquiring or releasing fails, Do returns that error together with the
// lock recovered from it, so the caller keeps ownership on every path.
func Do(l SafeLock, fn func() error) (SafeLock, error) {
	held, err := l.Acquire()
	if err != nil {
		return lockFrom(err, l), err
	}
	fnErr := fn()
	released, err := held.Release()
	if err != nil {
		return lockFrom(err, held), err
	}
	return released, fnErr
}

func lockFrom(err error, fallback SafeLock) SafeLock {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Lock
	}
	return fallback
}
