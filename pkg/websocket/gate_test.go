package websocket

import (
	"testing"
)

func TestGate_Reentrant(t *testing.T) {
	var g gate
	var calls []string

	g.run(func() {
		calls = append(calls, "outer")
		g.run(func() { calls = append(calls, "inner") })
	})

	if len(calls) != 2 || calls[0] != "outer" || calls[1] != "inner" {
		t.Fatalf("calls = %v, want [outer inner]", calls)
	}
	if g.holder.Load() != 0 || g.depth != 0 {
		t.Fatalf("gate still held: holder=%d depth=%d", g.holder.Load(), g.depth)
	}
}

func TestGate_CloseFromInside(t *testing.T) {
	var g gate
	ran := 0

	g.run(func() {
		g.close()
		g.run(func() { ran++ })
	})
	g.run(func() { ran++ })

	if ran != 0 {
		t.Fatalf("ran = %d after close, want 0", ran)
	}
}

func TestGate_ReleasedAfterPanic(t *testing.T) {
	var g gate
	func() {
		defer func() { _ = recover() }()
		g.run(func() { panic("boom") })
	}()

	done := make(chan struct{})
	go func() {
		g.close()
		close(done)
	}()
	<-done

	if g.enter() {
		t.Fatal("enter() = true after close")
	}
}

func TestGoroutineID(t *testing.T) {
	id := goroutineID()
	if id == 0 {
		t.Fatal("goroutineID() = 0")
	}
	if again := goroutineID(); again != id {
		t.Fatalf("goroutineID() = %d then %d on the same goroutine", id, again)
	}

	other := make(chan uint64)
	go func() { other <- goroutineID() }()
	if o := <-other; o == id || o == 0 {
		t.Fatalf("goroutineID() on another goroutine = %d, main = %d", o, id)
	}
}
