package main

import (
	"github.com/vango-dev/wstask/internal/eventq"
	"github.com/vango-dev/wstask/pkg/codec"
	"github.com/vango-dev/wstask/pkg/websocket"
)

// taskEvent is a callback from a task, tagged with the connection it came
// from so the owner can ignore events of a connection it already dropped.
type taskEvent struct {
	conn    uint64
	message *codec.Message
	status  websocket.Status
}

// mailbox carries task callbacks to the owner goroutine. It never blocks
// the sender: a send rejected on the owner goroutine reports its status
// synchronously, so a bounded channel could deadlock the owner.
type mailbox struct {
	*eventq.Queue[taskEvent]
}

func newMailbox() *mailbox {
	return &mailbox{Queue: eventq.New[taskEvent]()}
}

// callbacks returns the message and status sinks for connection conn.
func (m *mailbox) callbacks(conn uint64) (websocket.MessageFunc, websocket.StatusFunc) {
	onMessage := func(msg codec.Message) {
		m.Push(taskEvent{conn: conn, message: &msg})
	}
	onStatus := func(s websocket.Status) {
		m.Push(taskEvent{conn: conn, status: s})
	}
	return onMessage, onStatus
}
