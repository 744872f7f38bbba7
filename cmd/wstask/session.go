package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/vango-dev/wstask/internal/transcript"
	"github.com/vango-dev/wstask/pkg/codec"
	"github.com/vango-dev/wstask/pkg/websocket"
)

// command is one line typed into an interactive session.
type command struct {
	name  string
	value uint32
}

const sessionHelp = `Commands:
  connect            open the connection
  send [n]           send {"value": n} as a text frame (default 321)
  send-binary [n]    send {"value": n} as a binary frame (default 321)
  disconnect         close the connection
  status             show the connection and the last value
  quit               close the connection and exit`

func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, nil
	}

	cmd := command{name: strings.ToLower(fields[0]), value: defaultValue}
	switch cmd.name {
	case "connect", "disconnect", "status", "help", "quit":
		if len(fields) > 1 {
			return command{}, fmt.Errorf("%s takes no arguments", cmd.name)
		}
	case "exit":
		cmd.name = "quit"
	case "send", "send-binary":
		if len(fields) > 2 {
			return command{}, fmt.Errorf("%s takes at most one value", cmd.name)
		}
		if len(fields) == 2 {
			v, err := strconv.ParseUint(fields[1], 10, 32)
			if err != nil {
				return command{}, fmt.Errorf("invalid value %q: must be an unsigned 32-bit integer", fields[1])
			}
			cmd.value = uint32(v)
		}
	default:
		return command{}, fmt.Errorf("unknown command %q (try help)", fields[0])
	}
	return cmd, nil
}

// sessionConfig configures a Session.
type sessionConfig struct {
	URL      string
	Mode     websocket.Mode
	Format   codec.Format
	Options  []websocket.Option
	Recorder *transcript.Recorder
	Output   io.Writer
	Logger   *slog.Logger
}

// Session is the owner of at most one task. Every field is touched only by
// the goroutine running the session; task callbacks reach it through the
// mailbox.
type Session struct {
	cfg    sessionConfig
	inbox  *mailbox
	logger *slog.Logger

	task *websocket.Task
	conn uint64
	data *uint32
}

func newSession(cfg sessionConfig) *Session {
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Format == nil {
		cfg.Format = codec.JSON
	}
	return &Session{
		cfg:    cfg,
		inbox:  newMailbox(),
		logger: cfg.Logger.With("component", "session"),
	}
}

// Run reads commands from in until quit, end of input or ctx is done. The
// task, if any, is closed before Run returns.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	defer s.disconnect()
	s.printf("%s\n", sessionHelp)

	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			cmd, err := parseCommand(line)
			if err != nil {
				s.printf("error: %v\n", err)
				continue
			}
			if s.handle(cmd) {
				return nil
			}
			s.drain()

		case <-s.inbox.Ready():
			s.drain()
		}
	}
}

// handle executes cmd and reports whether the session should end.
func (s *Session) handle(cmd command) bool {
	switch cmd.name {
	case "":
	case "connect":
		s.connect()
	case "send":
		s.send(cmd.value, false)
	case "send-binary":
		s.send(cmd.value, true)
	case "disconnect":
		if s.task == nil {
			s.printf("not connected\n")
			return false
		}
		s.disconnect()
		s.printf("disconnected\n")
	case "status":
		s.printStatus()
	case "help":
		s.printf("%s\n", sessionHelp)
	case "quit":
		return true
	}
	return false
}

// drain handles every pending task callback.
func (s *Session) drain() {
	for {
		ev, ok := s.inbox.Pop()
		if !ok {
			return
		}
		s.handleEvent(ev)
	}
}

func (s *Session) handleEvent(ev taskEvent) {
	if s.task == nil || ev.conn != s.conn {
		s.logger.Debug("dropping event of a released task", "conn", ev.conn)
		return
	}

	if ev.message != nil {
		s.received(*ev.message)
		return
	}

	if s.cfg.Recorder != nil {
		s.cfg.Recorder.Status(s.task.ID(), ev.status)
	}
	switch ev.status {
	case websocket.StatusOpened:
		s.printf("connected to %s\n", s.task.URL())
	case websocket.StatusClosed, websocket.StatusError:
		s.lost(ev.status)
	}
}

func (s *Session) connect() {
	if s.task != nil {
		s.printf("already connected\n")
		return
	}

	s.conn++
	onMessage, onStatus := s.inbox.callbacks(s.conn)
	task, err := websocket.Connect(s.cfg.URL, onMessage, onStatus, s.cfg.Mode, s.cfg.Options...)
	if err != nil {
		s.printf("error: %v\n", err)
		return
	}
	s.task = task
	s.printf("connecting to %s (%s)\n", task.URL(), task.Mode())
}

func (s *Session) send(value uint32, binary bool) {
	if s.task == nil {
		s.printf("not connected\n")
		return
	}

	p := encodeRequest(s.cfg.Format, value, binary)
	if err := p.err(); err != nil {
		s.printf("skipped: %v\n", err)
	} else if s.cfg.Recorder != nil {
		s.cfg.Recorder.Sent(s.task.ID(), p.kind, p.bytes())
	}
	p.sendTo(s.task)
}

func (s *Session) received(m codec.Message) {
	if s.cfg.Recorder != nil {
		s.cfg.Recorder.Received(s.task.ID(), m)
	}

	var resp Response
	if err := codec.Restore(s.cfg.Format, m, &resp); err != nil {
		s.data = nil
		s.printf("received %s: %v\n", m.Kind, err)
		return
	}
	v := resp.Value
	s.data = &v
	s.printf("received %s: value = %d\n", m.Kind, v)
}

// lost drops a task whose connection closed or failed. The owner may
// connect again.
func (s *Session) lost(status websocket.Status) {
	s.task.Close()
	s.task = nil
	s.printf("connection lost (%s)\n", status)
}

func (s *Session) disconnect() {
	if s.task == nil {
		return
	}
	s.task.Close()
	s.task = nil
}

func (s *Session) printStatus() {
	if s.task == nil {
		s.printf("state: disconnected\n")
	} else {
		s.printf("state: %s %s\n", s.task.ReadyState(), s.task.URL())
	}
	if s.data == nil {
		s.printf("data: none fetched yet\n")
	} else {
		s.printf("data: %d\n", *s.data)
	}
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.cfg.Output, format, args...)
}
