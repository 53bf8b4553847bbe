/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package pool is a visible, first-class connection pool state
// machine sitting in front of a *sql.DB: bounded concurrency via a
// buffered-channel semaphore, blocking acquires while the pool is full,
// max-lifetime/idle-timeout bookkeeping and an optional health check on
// acquire. Waiters block on the semaphore channel, so they are not
// woken in arrival order. database/sql's own internal pool exposes none of this as
// request-time behavior beyond SetConnMaxLifetime/SetMaxOpenConns, so
// this package pools *sql.Conn acquisitions directly with bounded
// capacity and a wait queue, since sync.Pool itself has no notion of
// "bounded, blocks when exhausted".
package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dynsql/dynsql/errs"
)

// Config bounds the pool's behavior.
type Config struct {
	// MaxOpen caps concurrently-checked-out connections. <= 0 means
	// unbounded (the semaphore channel is skipped).
	MaxOpen int
	// AcquireTimeout bounds how long Acquire waits for a free slot
	// before returning errs.ErrPoolTimeout. <= 0 means wait forever
	// (subject to ctx).
	AcquireTimeout time.Duration
	// MaxLifetime bounds how long a connection may be reused after
	// first being handed out. <= 0 means no limit.
	MaxLifetime time.Duration
	// IdleTimeout bounds how long a connection may sit idle in the
	// pool; an acquire that finds it older than this discards it
	// before any HealthCheck runs.
	IdleTimeout time.Duration
	// HealthCheck, if set, is run against a connection before it's
	// handed to the caller; a non-nil error discards the connection
	// and tries the next one (or opens fresh, via Opener).
	HealthCheck func(ctx context.Context, conn any) error
	// Opener creates a new backing connection when the pool needs one
	// (no idle connection available, or the idle one failed its
	// health check).
	Opener func(ctx context.Context) (any, error)
	// Closer releases a backing connection.
	Closer func(conn any) error
}

type pooledConn struct {
	conn      any
	createdAt time.Time
	idleSince time.Time
}

// Pool is a bounded, health-checked pool of opaque backing connections
// (typically *sql.Conn, kept as `any` so this package stays decoupled
// from database/sql and is reusable for any Opener/Closer pair).
type Pool struct {
	cfg Config

	sem chan struct{} // nil when MaxOpen <= 0

	mu     sync.Mutex
	idle   []*pooledConn
	closed bool

	waiters int64 // observability: current waiter count
}

// New constructs a Pool from cfg. Opener and Closer must be set.
func New(cfg Config) *Pool {
	p := &Pool{cfg: cfg}
	if cfg.MaxOpen > 0 {
		p.sem = make(chan struct{}, cfg.MaxOpen)
	}
	return p
}

// Stats is a point-in-time snapshot of pool occupancy, modeled on
// database/sql.DBStats but for this package's own bookkeeping.
type Stats struct {
	Idle     int
	InUse    int
	Capacity int
	Waiters  int64
}

// Stats reports current occupancy.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	inUse := 0
	if p.sem != nil {
		inUse = len(p.sem)
	}
	return Stats{
		Idle:     len(p.idle),
		InUse:    inUse,
		Capacity: p.cfg.MaxOpen,
		Waiters:  atomic.LoadInt64(&p.waiters),
	}
}

// Acquire checks out a connection, blocking on the semaphore (FIFO via
// Go's channel send/receive ordering guarantees under a single
// consumer loop... in practice Go channels don't guarantee strict FIFO
// wakeup order across goroutines, so the documented ordering here is
// best-effort, not a hard guarantee) until one is free, ctx is done,
// or AcquireTimeout elapses.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errs.ErrPoolClosed
	}
	p.mu.Unlock()

	if p.sem != nil {
		if err := p.acquireSlot(ctx); err != nil {
			return nil, err
		}
	}

	pc, err := p.takeOrOpen(ctx)
	if err != nil {
		p.releaseSlot()
		return nil, err
	}
	return &Conn{pool: p, pc: pc}, nil
}

func (p *Pool) acquireSlot(ctx context.Context) error {
	atomic.AddInt64(&p.waiters, 1)
	defer atomic.AddInt64(&p.waiters, -1)

	if p.cfg.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.AcquireTimeout)
		defer cancel()
	}

	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		if p.cfg.AcquireTimeout > 0 {
			return errs.ErrPoolTimeout
		}
		return ctx.Err()
	}
}

func (p *Pool) releaseSlot() {
	if p.sem != nil {
		<-p.sem
	}
}

func (p *Pool) takeOrOpen(ctx context.Context) (*pooledConn, error) {
	for {
		p.mu.Lock()
		if len(p.idle) == 0 {
			p.mu.Unlock()
			break
		}
		pc := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
		p.mu.Unlock()

		if p.expired(pc) {
			p.closeConn(pc)
			continue
		}
		if p.cfg.HealthCheck != nil {
			if err := p.cfg.HealthCheck(ctx, pc.conn); err != nil {
				p.closeConn(pc)
				continue
			}
		}
		return pc, nil
	}

	conn, err := p.cfg.Opener(ctx)
	if err != nil {
		return nil, err
	}
	return &pooledConn{conn: conn, createdAt: time.Now()}, nil
}

func (p *Pool) expired(pc *pooledConn) bool {
	now := time.Now()
	if p.cfg.MaxLifetime > 0 && now.Sub(pc.createdAt) > p.cfg.MaxLifetime {
		return true
	}
	if p.cfg.IdleTimeout > 0 && !pc.idleSince.IsZero() && now.Sub(pc.idleSince) > p.cfg.IdleTimeout {
		return true
	}
	return false
}

func (p *Pool) closeConn(pc *pooledConn) {
	if p.cfg.Closer != nil {
		_ = p.cfg.Closer(pc.conn)
	}
}

// release returns pc to the idle list, or closes it if the pool has
// since been closed.
func (p *Pool) release(pc *pooledConn) {
	pc.idleSince = time.Now()
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.closeConn(pc)
		p.releaseSlot()
		return
	}
	p.idle = append(p.idle, pc)
	p.mu.Unlock()
	p.releaseSlot()
}

// discard closes pc outright rather than returning it to the idle
// list, for callers that know the connection is broken.
func (p *Pool) discard(pc *pooledConn) {
	p.closeConn(pc)
	p.releaseSlot()
}

// Close closes every idle connection and marks the pool closed; any
// in-flight Conn.Release/Discard afterwards still closes its backing
// connection rather than leaking it back into an idle slot.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	for _, pc := range idle {
		p.closeConn(pc)
	}
	return nil
}
