package websocket

import (
	"sync"
	"sync/atomic"
)

// EventTarget is a registry of event listeners. The zero value is ready to
// use. Socket implementations embed it to satisfy AddEventListener.
type EventTarget struct {
	mu        sync.Mutex
	listeners map[EventType][]*Listener
}

// AddEventListener registers fn for events of type typ and returns the
// registration. The registration stays active until Remove is called.
func (t *EventTarget) AddEventListener(typ EventType, fn func(Event)) *Listener {
	l := &Listener{target: t, typ: typ, fn: fn}

	t.mu.Lock()
	if t.listeners == nil {
		t.listeners = make(map[EventType][]*Listener)
	}
	t.listeners[typ] = append(t.listeners[typ], l)
	t.mu.Unlock()

	return l
}

// DispatchEvent invokes every listener registered for ev.Type, in
// registration order, and returns how many were invoked. A listener removed
// while the dispatch is in progress is skipped.
func (t *EventTarget) DispatchEvent(ev Event) int {
	t.mu.Lock()
	snapshot := append([]*Listener(nil), t.listeners[ev.Type]...)
	t.mu.Unlock()

	n := 0
	for _, l := range snapshot {
		if l.removed.Load() {
			continue
		}
		l.fn(ev)
		n++
	}
	return n
}

// ListenerCount returns the number of active listeners for typ.
func (t *EventTarget) ListenerCount(typ EventType) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.listeners[typ])
}

func (t *EventTarget) remove(l *Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ls := t.listeners[l.typ]
	for i, cur := range ls {
		if cur == l {
			t.listeners[l.typ] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// Listener is one event listener registration. It is released by Remove.
type Listener struct {
	target  *EventTarget
	typ     EventType
	fn      func(Event)
	removed atomic.Bool
}

// Type returns the event type the listener is registered for.
func (l *Listener) Type() EventType {
	return l.typ
}

// Remove unregisters the listener. It is idempotent and safe to call from
// inside the listener itself. Once Remove returns the listener is not
// invoked for any subsequent dispatch.
func (l *Listener) Remove() {
	if l == nil || l.removed.Swap(true) {
		return
	}
	l.target.remove(l)
}
