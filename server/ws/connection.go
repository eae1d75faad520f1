package ws

import (
	"context"
	"sync"
	"time"

	"github.com/adrianliechti/narrator/pkg/stream"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	maxMessageSize = 1 << 20
)

var _ stream.Sink = (*connection)(nil)

// connection serializes data writes to the socket, as gorilla connections
// support one concurrent writer only. Control frames may be sent at any time.
type connection struct {
	socket *websocket.Conn

	mu sync.Mutex
}

func newConnection(socket *websocket.Conn) *connection {
	socket.SetReadLimit(maxMessageSize)
	socket.SetReadDeadline(time.Now().Add(pongWait))

	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	return &connection{
		socket: socket,
	}
}

func (c *connection) Send(ctx context.Context, e stream.Event) error {
	return c.write(e)
}

func (c *connection) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.socket.SetWriteDeadline(time.Now().Add(writeWait))

	return c.socket.WriteJSON(v)
}

func (c *connection) read() (*Message, error) {
	var m Message

	if err := c.socket.ReadJSON(&m); err != nil {
		return nil, err
	}

	// any message proves the client is alive
	c.socket.SetReadDeadline(time.Now().Add(pongWait))

	return &m, nil
}

func (c *connection) keepalive(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			if err := c.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		}
	}
}

func (c *connection) close() error {
	c.socket.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))

	return c.socket.Close()
}
