package client

import (
	"context"
	"errors"
	"sync"
)

// ErrLimiterClosed is returned by Acquire after Close.
var ErrLimiterClosed = errors.New("host limiter closed")

// HostLimiter bounds in-flight transport calls per host. PDUs in NPS mode
// answer for four chassis on one address and drop sessions under parallel
// load, so the default limit is one call per host.
type HostLimiter struct {
	limit int

	mu    sync.RWMutex
	hosts map[string]chan struct{}

	closed chan struct{}
	once   sync.Once
}

// NewHostLimiter returns a limiter allowing limit concurrent calls per host
// (1 when limit <= 0).
func NewHostLimiter(limit int) *HostLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &HostLimiter{
		limit:  limit,
		hosts:  make(map[string]chan struct{}),
		closed: make(chan struct{}),
	}
}

// Acquire blocks until a slot for host is free. The returned func releases
// it and must be called exactly once.
func (l *HostLimiter) Acquire(ctx context.Context, host string) (func(), error) {
	if l == nil {
		return func() {}, nil
	}

	select {
	case <-l.closed:
		return nil, ErrLimiterClosed
	default:
	}

	sem := l.semaphore(host)
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		return nil, ErrLimiterClosed
	}
}

// Close makes pending and future Acquire calls fail.
func (l *HostLimiter) Close() {
	l.once.Do(func() { close(l.closed) })
}

func (l *HostLimiter) semaphore(host string) chan struct{} {
	l.mu.RLock()
	sem, ok := l.hosts[host]
	l.mu.RUnlock()
	if ok {
		return sem
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Double-check under write lock.
	if sem, ok = l.hosts[host]; ok {
		return sem
	}
	sem = make(chan struct{}, l.limit)
	l.hosts[host] = sem
	return sem
}
