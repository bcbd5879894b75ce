package pgwire

import (
	"context"
	"log/slog"
	"math/bits"
	"sync"
)

// Pool is a fixed-size, thread-safe pool of PostgreSQL connections. Unlike
// db-bouncer's dynamic idle/active slice design (its TenantPool),
// this pool pre-allocates exactly Size connections up front and tracks
// which are checked out with a bitset rather than growing/shrinking slices
// — the spec's pool is sized once at construction and never resized (spec
// §5 "Fixed-size pool").
type Pool struct {
	cfg    Config
	logger Logger

	mu     sync.Mutex
	cond   *sync.Cond
	conns  []*Conn
	busy   []uint64 // bitset, one bit per slot
	closed bool
}

// PoolStats reports a snapshot of pool occupancy.
type PoolStats struct {
	Total     int
	InUse     int
	Available int
}

// NewPool creates size connections against cfg and returns a Pool ready to
// hand them out. If any connection fails, already-opened connections are
// closed and the error is returned (spec §5 "Initialization failure").
func NewPool(cfg Config, size int) (*Pool, error) {
	if size <= 0 {
		return nil, newErr(KindInitializationFailed, "pool size must be positive, got %d", size)
	}
	p := &Pool{
		cfg:    cfg,
		logger: loggerOrDefault(cfg.Logger),
		conns:  make([]*Conn, size),
		busy:   make([]uint64, (size+63)/64),
	}
	p.cond = sync.NewCond(&p.mu)

	for i := 0; i < size; i++ {
		c, err := Connect(cfg)
		if err != nil {
			for j := 0; j < i; j++ {
				p.conns[j].Close()
			}
			return nil, wrapErr(KindInitializationFailed, err, "warming up pool connection %d/%d", i+1, size)
		}
		p.conns[i] = c
	}
	return p, nil
}

// PooledConnection is a checked-out slot. Callers pass its Conn to the
// query facade functions (SimpleExec, ExtendedQuerySelect, ...) and must
// call Release exactly once when done.
type PooledConnection struct {
	Conn *Conn
	pool *Pool
	slot int
}

// Acquire blocks until a connection is available or ctx is done. When ctx
// carries no deadline and the pool's Config.Timeout is positive, that
// timeout bounds the wait. If rlsCtx is non-nil, its variables are applied
// via SET SESSION immediately after acquisition, before the connection is
// returned to the caller (spec §5 "RLS variable application").
func (p *Pool) Acquire(ctx context.Context, rlsCtx RLSContext) (*PooledConnection, error) {
	if _, ok := ctx.Deadline(); !ok && p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	p.mu.Lock()

	stop := p.wakeOnDone(ctx)
	defer stop()

	for {
		if p.closed {
			p.mu.Unlock()
			return nil, newErr(KindPoolClosed, "pool is closed")
		}
		if slot, ok := p.firstFreeLocked(); ok {
			p.markBusyLocked(slot)
			conn := p.conns[slot]
			p.mu.Unlock()

			if !conn.IsAlive() {
				if err := p.healLocked(slot); err != nil {
					p.mu.Lock()
					p.markFreeLocked(slot)
					p.cond.Signal()
					p.mu.Unlock()
					return nil, err
				}
				p.mu.Lock()
				conn = p.conns[slot]
				p.mu.Unlock()
			}

			if len(rlsCtx) > 0 {
				if err := applyRLSContext(conn, rlsCtx); err != nil {
					pc := &PooledConnection{Conn: conn, pool: p, slot: slot}
					p.Release(pc)
					return nil, err
				}
			}

			return &PooledConnection{Conn: conn, pool: p, slot: slot}, nil
		}

		select {
		case <-ctx.Done():
			p.mu.Unlock()
			return nil, newErr(KindTimeout, "timed out waiting for an available connection")
		default:
		}

		p.cond.Wait()
	}
}

// wakeOnDone arranges for p.cond to be broadcast once ctx is done, so a
// blocked Acquire wakes up to notice its own deadline rather than waiting
// for an unrelated Release (grounded on db-bouncer's
// time.AfterFunc+cond.Broadcast pattern, adapted from a fixed timeout to an
// arbitrary context.Context).
func (p *Pool) wakeOnDone(ctx context.Context) func() {
	if ctx.Done() == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.cond.Broadcast()
			p.mu.Unlock()
		case <-done:
		}
	}()
	return func() { close(done) }
}

func (p *Pool) firstFreeLocked() (int, bool) {
	for word := 0; word < len(p.busy); word++ {
		if p.busy[word] == ^uint64(0) {
			continue
		}
		bit := bits.TrailingZeros64(^p.busy[word])
		slot := word*64 + bit
		if slot >= len(p.conns) {
			continue
		}
		return slot, true
	}
	return 0, false
}

func (p *Pool) markBusyLocked(slot int) {
	p.busy[slot/64] |= 1 << uint(slot%64)
}

func (p *Pool) markFreeLocked(slot int) {
	p.busy[slot/64] &^= 1 << uint(slot%64)
}

// healLocked replaces a dead connection in slot with a freshly dialed one,
// per spec §5 "Health checking" — a connection that failed mid-use is not
// handed to the next caller, it is replaced first.
func (p *Pool) healLocked(slot int) error {
	p.conns[slot].Close()
	c, err := Connect(p.cfg)
	if err != nil {
		return wrapErr(KindConnectionFailed, err, "reconnecting pool slot %d", slot)
	}
	p.mu.Lock()
	p.conns[slot] = c
	p.mu.Unlock()
	return nil
}

// applyRLSContext runs one SET SESSION statement per RLSContext entry.
func applyRLSContext(c *Conn, rlsCtx RLSContext) error {
	stmts, err := buildSessionStatements(rlsCtx)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := SimpleExec(c, stmt); err != nil {
			return wrapErr(KindRLSContextError, err, "applying RLS context")
		}
	}
	return nil
}

// Release returns pc's connection to the pool. It first resets session
// state (RESET ALL) so the next caller never observes a prior caller's RLS
// variables (spec §5 "Session reset"); a connection that fails the reset
// or is no longer alive is replaced rather than returned to circulation. A
// slot that is already marked free is left untouched and logged, rather
// than corrupting the bitset by freeing it twice.
func (p *Pool) Release(pc *PooledConnection) {
	if pc == nil || pc.pool != p {
		return
	}

	if pc.Conn.IsAlive() {
		if _, err := SimpleExec(pc.Conn, resetSessionStatement()); err != nil {
			pc.Conn.markError()
			p.logger.Log(context.Background(), slog.LevelWarn, "pool: RESET ALL failed releasing connection", "slot", pc.slot, "error", err)
		}
	}

	p.mu.Lock()
	if p.busy[pc.slot/64]&(1<<uint(pc.slot%64)) == 0 {
		p.mu.Unlock()
		p.logger.Log(context.Background(), slog.LevelWarn, "pool: Release called on a connection that is not checked out", "slot", pc.slot)
		return
	}
	if !pc.Conn.IsAlive() {
		p.mu.Unlock()
		_ = p.healLocked(pc.slot)
		p.mu.Lock()
	}
	p.markFreeLocked(pc.slot)
	p.cond.Signal()
	p.mu.Unlock()
}

// Stats returns a snapshot of how many connections are currently checked
// out.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	inUse := 0
	for slot := range p.conns {
		if p.busy[slot/64]&(1<<uint(slot%64)) != 0 {
			inUse++
		}
	}
	return PoolStats{Total: len(p.conns), InUse: inUse, Available: len(p.conns) - inUse}
}

// Close closes every connection in the pool. Any Acquire blocked at the
// time of Close returns KindPoolClosed.
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	conns := p.conns
	p.mu.Unlock()

	p.cond.Broadcast()

	var firstErr error
	for _, c := range conns {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
