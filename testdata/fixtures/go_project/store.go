package accounts

import (
	"context"
	stdsync "sync"
)

// CachedRepository wraps a Repository with a lock.
type CachedRepository struct {
	Repository
	mu stdsync.Mutex
}

// Closer releases resources.
type Closer interface {
	Repository
	Close(ctx context.Context) error
}
