package ports

import "context"

// Locker grants exclusive sections keyed by string. Acquire blocks until the
// key is free or ctx is done; the returned func releases the key.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
