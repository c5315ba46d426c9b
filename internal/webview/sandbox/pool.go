package sandbox

import (
	"context"
	"sync"
	"time"
)

// Pool manages a pool of reusable runtimes
type Pool struct {
	config    Config
	sandboxes chan *Runtime
	size      int
	mu        sync.RWMutex
	closed    bool
}

// PoolStats describes pool occupancy
type PoolStats struct {
	Size      int  `json:"size"`
	Available int  `json:"available"`
	InUse     int  `json:"in_use"`
	Closed    bool `json:"closed"`
}

// NewPool creates a runtime pool
func NewPool(config Config, size int) (*Pool, error) {
	if size <= 0 {
		size = 4
	}

	pool := &Pool{
		config:    config,
		sandboxes: make(chan *Runtime, size),
		size:      size,
	}

	// Pre-create runtimes
	for i := 0; i < size; i++ {
		rt, err := New(config)
		if err != nil {
			pool.Close()
			return nil, err
		}
		pool.sandboxes <- rt
	}

	return pool, nil
}

// Acquire takes a runtime from the pool, waiting at most the configured
// timeout for one to become free.
func (p *Pool) Acquire(ctx context.Context) (*Runtime, error) {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return nil, ErrPoolClosed
	}

	wait := p.config.Timeout
	if wait <= 0 {
		wait = DefaultConfig().Timeout
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case rt, ok := <-p.sandboxes:
		if !ok {
			return nil, ErrPoolClosed
		}
		return rt, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTimeout
	}
}

// Release resets a runtime and returns it to the pool
func (p *Pool) Release(rt *Runtime) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return rt.Close()
	}

	if err := rt.Reset(); err != nil {
		rt.Close()
		// Keep the pool at full size
		if fresh, newErr := New(p.config); newErr == nil {
			p.sandboxes <- fresh
		}
		return err
	}

	select {
	case p.sandboxes <- rt:
		return nil
	default:
		return rt.Close()
	}
}

// Run executes scripts on a pooled runtime
func (p *Pool) Run(ctx context.Context, bridge Bridge, dom *DOM, scripts ...Script) (*Result, error) {
	rt, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(rt)

	return rt.Run(ctx, bridge, dom, scripts...)
}

// Close closes the pool and all idle runtimes
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	close(p.sandboxes)

	for rt := range p.sandboxes {
		rt.Close()
	}

	return nil
}

// Stats returns pool statistics
func (p *Pool) Stats() PoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	available := len(p.sandboxes)
	return PoolStats{
		Size:      p.size,
		Available: available,
		InUse:     p.size - available,
		Closed:    p.closed,
	}
}
