package websocket

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// gate serializes a task's callbacks against Close. A callback runs only
// between a successful enter and its leave; close shuts the gate so no
// callback starts afterwards.
//
// The gate is re-entrant per goroutine: a callback may send (which can
// report a status synchronously) or close the task without deadlocking.
type gate struct {
	mu     sync.Mutex
	holder atomic.Uint64 // goroutine holding mu, 0 when free
	depth  int           // guarded by mu
	closed bool          // guarded by mu
}

// enter reports whether a callback may run. On true the caller must call
// leave when the callback returns.
func (g *gate) enter() bool {
	gid := goroutineID()
	if g.holder.Load() == gid {
		if g.closed {
			return false
		}
		g.depth++
		return true
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return false
	}
	g.holder.Store(gid)
	g.depth = 1
	return true
}

func (g *gate) leave() {
	g.depth--
	if g.depth == 0 {
		g.holder.Store(0)
		g.mu.Unlock()
	}
}

// close shuts the gate. It waits for a callback running on another
// goroutine to return; called from inside a callback it returns at once.
func (g *gate) close() {
	if g.holder.Load() == goroutineID() {
		g.closed = true
		return
	}
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

// run calls fn if the gate is open.
func (g *gate) run(fn func()) {
	if !g.enter() {
		return
	}
	defer g.leave()
	fn()
}

// goroutineID returns the runtime's identifier of the calling goroutine,
// parsed from the "goroutine <id> [" stack header.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
