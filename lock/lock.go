// Package lock provides lifecycle-checked wrappers around native lock
// resources supplied by a host framework.
//
// The framework's locks are raw capabilities: once constructed they can be
// acquired and released, but nothing stops a caller from acquiring twice,
// releasing an unheld lock, or using a lock that was never constructed.
// RawLock owns one such resource and forwards calls to it unchecked.
// SafeLock wraps a RawLock in an explicit state machine whose operations
// consume the lock value and hand back a replacement, so state-invalid
// operations are rejected immediately and the caller always regains
// ownership of the lock, even on failure. Stale copies retained after a
// successful transition are detected at runtime and rejected.
package lock

import "fmt"

// Handle is an opaque reference to a native lock resource. The zero Handle
// is the null reference and never identifies a live resource.
type Handle uint64

// Status is a native status code reported by a Framework's construct entry
// point. The zero value means success; any other value describes the
// failure and implements error.
type Status uint32

const (
	// StatusSuccess indicates the native call completed.
	StatusSuccess Status = 0x0
	// StatusInvalidParameter indicates the framework rejected the supplied
	// attributes.
	StatusInvalidParameter Status = 0xC000000D
	// StatusInsufficientResources indicates the framework could not
	// allocate another lock resource.
	StatusInsufficientResources Status = 0xC000009A
)

func (s Status) Error() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusInvalidParameter:
		return "invalid parameter"
	case StatusInsufficientResources:
		return "insufficient resources"
	}
	return fmt.Sprintf("native status 0x%08X", uint32(s))
}

// Attributes is the configuration object forwarded to a Framework when
// constructing a lock. RawLock and SafeLock never inspect it; individual
// frameworks document which fields, if any, they honor.
type Attributes struct {
	// Name optionally identifies the lock to the framework.
	Name string
	// Metadata carries free-form framework-specific settings.
	Metadata map[string]string
}

// Framework is the set of native entry points a host must provide for its
// lock resources.
// CreateLock must return a non-zero Handle on success, or a non-success
// Status describing the refusal.
// AcquireLock and ReleaseLock are trusted calls: they take no state into
// account, must not be invoked with a handle the framework did not create,
// and are assumed infallible once construction has succeeded. A framework
// whose underlying primitive can still fail at that point must treat the
// failure as fatal and panic with a *FatalError rather than report it as a
// recoverable condition.
// DestroyLock tears the resource down. RawLock and SafeLock never call it;
// destruction belongs to whatever owns the framework, such as a Manager.
type Framework interface {
	CreateLock(attr *Attributes) (Handle, Status)
	AcquireLock(h Handle)
	ReleaseLock(h Handle)
	DestroyLock(h Handle) error
}
