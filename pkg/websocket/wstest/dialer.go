package wstest

import (
	"sync"

	"github.com/vango-dev/wstask/pkg/websocket"
)

// Dialer creates Sockets and keeps them for inspection. Its Factory method
// is a websocket.SocketFactory.
type Dialer struct {
	// Err, if set, makes Factory fail as a socket constructor would.
	Err error

	// Echo is copied onto every created socket.
	Echo bool

	mu      sync.Mutex
	sockets []*Socket
}

// Factory validates rawURL like the real transport and returns a new Socket.
func (d *Dialer) Factory(rawURL string, _ *websocket.SocketConfig) (websocket.Socket, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	u, err := websocket.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	s := NewSocket(u.String())
	s.Echo = d.Echo

	d.mu.Lock()
	d.sockets = append(d.sockets, s)
	d.mu.Unlock()
	return s, nil
}

// Sockets returns every socket created so far.
func (d *Dialer) Sockets() []*Socket {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Socket(nil), d.sockets...)
}

// Last returns the most recently created socket, or nil.
func (d *Dialer) Last() *Socket {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.sockets) == 0 {
		return nil
	}
	return d.sockets[len(d.sockets)-1]
}
