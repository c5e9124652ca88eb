package cache

import (
	"context"
	"sync"
)

type pendingKey struct{}

// Pending collects invalidations that must wait for a transaction to commit
type Pending struct {
	mu  sync.Mutex
	fns []func(context.Context)
}

// WithPending returns a context that marks work as transactional. Start the
// transaction with it and call Flush once it commits.
func WithPending(ctx context.Context) (context.Context, *Pending) {
	pending := &Pending{}
	return context.WithValue(ctx, pendingKey{}, pending), pending
}

// PendingFrom returns the collector carried by ctx, or nil
func PendingFrom(ctx context.Context) *Pending {
	if ctx == nil {
		return nil
	}
	pending, _ := ctx.Value(pendingKey{}).(*Pending)
	return pending
}

func (p *Pending) Add(fn func(context.Context)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fns = append(p.fns, fn)
}

// Flush runs and clears the collected invalidations in registration order
func (p *Pending) Flush(ctx context.Context) {
	p.mu.Lock()
	fns := p.fns
	p.fns = nil
	p.mu.Unlock()

	for _, fn := range fns {
		fn(ctx)
	}
}
