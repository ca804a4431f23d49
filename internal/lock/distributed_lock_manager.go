package lock

import "context"

// DistributedLockManager serializes work across processes sharing a database.
type DistributedLockManager interface {
	Acquire(ctx context.Context, lockID int) error
	Release(ctx context.Context, lockID int) error
}
