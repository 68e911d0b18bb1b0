package lock

// State identifies a SafeLock's lifecycle stage.
type State uint8

const (
	// Uninitialized means no native resource exists yet. Only Create is
	// valid.
	Uninitialized State = iota
	// Initialized means the native resource exists but is not held.
	Initialized
	// Held means the native resource is held by the goroutine that
	// acquired it.
	Held
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Held:
		return "held"
	}
	return "invalid"
}

// SafeLock wraps a RawLock in an explicit lifecycle state machine. Every
// operation consumes the value it is called on and returns a replacement:
// on success the replacement is the lock advanced to its next state, and on
// failure the returned *Error embeds the lock unchanged. Callers must
// always continue with the lock they got back and discard the consumed
// value.
//
// The single-owner discipline is enforced at runtime: every successful
// transition advances a generation counter on the underlying RawLock, so a
// stale copy retained from before the transition fails every operation
// with ErrConsumed instead of reaching the native lock. Ownership stays
// with the holder of the live value; an ErrConsumed error carries no lock.
//
// The zero SafeLock is Uninitialized and ready for use.
//
// A SafeLock has no automatic release: the caller drives every transition,
// including the final Release. See Do for an opt-in scoped convenience.
type SafeLock struct {
	state State
	inner *RawLock
	gen   uint64
}

// consumed reports whether l is a stale copy left behind by an earlier
// successful transition.
func (l SafeLock) consumed() bool {
	return l.inner != nil && l.gen != l.inner.gen
}

// State reports the lock's current lifecycle stage.
func (l SafeLock) State() State {
	return l.state
}

// Create constructs the native lock resource, moving the lock from
// Uninitialized to Initialized. attr is forwarded to the framework
// uninterpreted.
//
// If the framework refuses construction, the error is ErrCreateFailed
// carrying the native Status, and the embedded lock is still Uninitialized
// and may be retried. If the lock was already created, the error is
// ErrAlreadyCreated and the embedded lock is unchanged.
func (l SafeLock) Create(fw Framework, attr *Attributes) (SafeLock, error) {
	if l.consumed() {
		return SafeLock{}, &Error{Op: "create", Err: ErrConsumed}
	}
	switch l.state {
	case Uninitialized:
		inner, err := NewRawLock(fw, attr)
		if err != nil {
			status, _ := err.(Status)
			return SafeLock{}, &Error{Op: "create", Err: ErrCreateFailed, Status: status, Lock: l}
		}
		return SafeLock{state: Initialized, inner: inner, gen: inner.gen}, nil
	default:
		return SafeLock{}, &Error{Op: "create", Err: ErrAlreadyCreated, Lock: l}
	}
}

// Acquire takes the native lock, moving the lock from Initialized to Held.
// It blocks until the native primitive grants the lock.
//
// Acquiring a Held lock fails with ErrAlreadyHeld; acquiring an
// Uninitialized lock fails with ErrUninitialized. In both cases the
// embedded lock is unchanged and the native primitive is not touched.
func (l SafeLock) Acquire() (SafeLock, error) {
	if l.consumed() {
		return SafeLock{}, &Error{Op: "acquire", Err: ErrConsumed}
	}
	switch l.state {
	case Initialized:
		l.inner.Acquire()
		l.inner.gen++
		return SafeLock{state: Held, inner: l.inner, gen: l.inner.gen}, nil
	case Held:
		return SafeLock{}, &Error{Op: "acquire", Err: ErrAlreadyHeld, Lock: l}
	default:
		return SafeLock{}, &Error{Op: "acquire", Err: ErrUninitialized, Lock: l}
	}
}

// Release relinquishes the native lock, moving the lock from Held back to
// Initialized, from which it may be acquired again.
//
// Releasing an Initialized (never-acquired) lock fails with ErrNotHeld;
// releasing an Uninitialized lock fails with ErrUninitialized. In both
// cases the embedded lock is unchanged and the native primitive is not
// touched.
func (l SafeLock) Release() (SafeLock, error) {
	if l.consumed() {
		return SafeLock{}, &Error{Op: "release", Err: ErrConsumed}
	}
	switch l.state {
	case Held:
		l.inner.Release()
		l.inner.gen++
		return SafeLock{state: Initialized, inner: l.inner, gen: l.inner.gen}, nil
	case Initialized:
		return SafeLock{}, &Error{Op: "release", Err: ErrNotHeld, Lock: l}
	default:
		return SafeLock{}, &Error{Op: "release", Err: ErrUninitialized, Lock: l}
	}
}
