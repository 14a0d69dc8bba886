package netsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds how long one outbound frame may block. A peer that
// cannot drain within it is treated as gone.
const writeWait = 5 * time.Second

// Peer is one remote endpoint the hub pushes frames to.
type Peer interface {
	Send(data []byte) error
	Close() error
}

// WSPeer adapts a websocket connection. Writes are serialized and
// bounded by a deadline so one stalled connection cannot wedge the
// simulation loop behind it.
type WSPeer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewWSPeer wraps an established connection from either the upgrader or
// the dialer side.
func NewWSPeer(conn *websocket.Conn) *WSPeer {
	return &WSPeer{conn: conn}
}

func (p *WSPeer) Send(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

func (p *WSPeer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.Close()
}

// ReadPump feeds inbound frames into the hub until the connection drops
// or the context ends. Run it on its own goroutine per connection.
func (p *WSPeer) ReadPump(ctx context.Context, h *Hub) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			return err
		}
		h.Receive(data)
	}
}

var errPeerClosed = errors.New("netsync: peer closed")

// memoryPeer delivers frames straight into the other side's inbound
// queue. It stands in for a socket when both hubs share a process.
type memoryPeer struct {
	to *Hub

	mu     sync.Mutex
	closed bool
}

func (m *memoryPeer) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errPeerClosed
	}
	m.to.Receive(data)
	return nil
}

func (m *memoryPeer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Link wires two hubs back to back with in-process peers. Frames sent
// by one side land in the other's inbound queue and apply on its next
// tick.
func Link(a, b *Hub) {
	a.AttachPeer(&memoryPeer{to: b})
	b.AttachPeer(&memoryPeer{to: a})
}
