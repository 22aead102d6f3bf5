// Package lock serialises planning runs that target the same date.
package lock

import (
	"context"
	"errors"
)

// ErrLocked is returned when another holder owns the key.
var ErrLocked = errors.New("lock held by another run")

// Locker grants exclusive ownership of a key. Acquire never waits: a held key
// fails fast with ErrLocked. The returned release func is safe to call once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
