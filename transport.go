package fchat

import (
	"context"
	"fmt"

	"github.com/coder/websocket"
)

// chatEndpoint is the single F-Chat websocket endpoint. Text frames only;
// the server never sends close frames (§6).
const chatEndpoint = "wss://chat.f-list.net/chat2"

// Connection abstracts the websocket transport a Session reads and writes
// frames over, so tests can substitute a scripted socket.
type Connection interface {
	Write(ctx context.Context, frame string) error
	Read(ctx context.Context) (string, error)
	Close() error
}

type wsConn struct {
	conn *websocket.Conn
}

func dialChat(ctx context.Context) (*wsConn, error) {
	conn, _, err := websocket.Dial(ctx, chatEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", chatEndpoint, err)
	}
	conn.SetReadLimit(1 << 20)
	return &wsConn{conn: conn}, nil
}

func (w *wsConn) Write(ctx context.Context, frame string) error {
	return w.conn.Write(ctx, websocket.MessageText, []byte(frame))
}

func (w *wsConn) Read(ctx context.Context) (string, error) {
	_, data, err := w.conn.Read(ctx)
	return string(data), err
}

func (w *wsConn) Close() error {
	return w.conn.CloseNow()
}
