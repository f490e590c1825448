package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a session lock taken by DistributedLocker.Lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes work on one session across replicas that share
// a session store. The session manager takes it around every load, mutation and
// save, on top of its in-process per-session mutex.
type DistributedLocker interface {
	// Lock acquires the lock named key, usually a session id. It waits until the
	// lock is free or ctx is done. The lock expires after ttl if never released,
	// so a crashed replica cannot hold a session forever.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
