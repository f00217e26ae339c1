// Package acctlock serializes optimization cycles per ad account. A cycle
// must hold the account's lease before it touches platform budgets; a second
// cycle for the same account is rejected, not queued.
package acctlock

import (
	"context"
	"sync"
)

// Lease is held for the duration of one cycle and released when it ends.
type Lease interface {
	// Release gives the account back. Safe to call once per lease.
	Release(ctx context.Context) error
}

// Registry hands out per-account leases.
type Registry interface {
	// TryAcquire attempts to take the account's lease without blocking.
	// ok=false means another cycle holds it.
	TryAcquire(ctx context.Context, accountID string) (lease Lease, ok bool, err error)
}

// LocalRegistry serializes accounts within a single process.
type LocalRegistry struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocal creates an in-process registry.
func NewLocal() *LocalRegistry {
	return &LocalRegistry{held: make(map[string]bool)}
}

// TryAcquire takes the account if no other cycle in this process holds it.
func (r *LocalRegistry) TryAcquire(_ context.Context, accountID string) (Lease, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.held[accountID] {
		return nil, false, nil
	}
	r.held[accountID] = true
	return &localLease{registry: r, accountID: accountID}, true, nil
}

type localLease struct {
	registry  *LocalRegistry
	accountID string
	once      sync.Once
}

func (l *localLease) Release(context.Context) error {
	l.once.Do(func() {
		l.registry.mu.Lock()
		delete(l.registry.held, l.accountID)
		l.registry.mu.Unlock()
	})
	return nil
}
