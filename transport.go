package pdfhelper

import (
	"context"
	"net/http"
	"sync"

	"github.com/coder/websocket"
)

// Transport carries chat frames between the client and the server.
// Questions go out as raw text frames; replies come back as raw bytes so a
// malformed frame can be reported without tearing the connection down.
// Implementations must be safe for concurrent use.
type Transport interface {
	Send(ctx context.Context, text string) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// DialOptions configures the WebSocket connection.
type DialOptions struct {
	// HTTPHeader specifies additional HTTP headers to send during handshake.
	HTTPHeader http.Header

	// HTTPClient is the HTTP client used for the handshake.
	// If nil, http.DefaultClient is used.
	HTTPClient *http.Client
}

// Dial connects to a chat endpoint and returns a Transport.
func Dial(ctx context.Context, url string, opts *DialOptions) (Transport, error) {
	dialOpts := &websocket.DialOptions{}
	if opts != nil {
		if opts.HTTPHeader != nil {
			dialOpts.HTTPHeader = opts.HTTPHeader.Clone()
		}
		if opts.HTTPClient != nil {
			dialOpts.HTTPClient = opts.HTTPClient
		}
	}

	conn, _, err := websocket.Dial(ctx, url, dialOpts)
	if err != nil {
		return nil, &ConnectionError{Op: "dial", URL: url, Err: err}
	}

	// Source listings can make the last fragment large
	conn.SetReadLimit(4 * 1024 * 1024) // 4MB

	return &wsTransport{conn: conn}, nil
}

// wsTransport implements Transport over WebSocket.
type wsTransport struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

// Send writes a question to the server as a text frame.
func (t *wsTransport) Send(ctx context.Context, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}

	if err := t.conn.Write(ctx, websocket.MessageText, []byte(text)); err != nil {
		return &ConnectionError{Op: "write", Err: err}
	}

	return nil
}

// Receive reads the next frame from the server.
// A normal close from either side is reported as ErrClosed.
func (t *wsTransport) Receive(ctx context.Context) ([]byte, error) {
	_, data, err := t.conn.Read(ctx)
	if err != nil {
		t.mu.Lock()
		closed := t.closed
		t.mu.Unlock()
		if closed {
			return nil, ErrClosed
		}
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			return nil, ErrClosed
		}
		return nil, &ConnectionError{Op: "read", Err: err}
	}

	return data, nil
}

// Close closes the transport.
func (t *wsTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	return t.conn.Close(websocket.StatusNormalClosure, "")
}
