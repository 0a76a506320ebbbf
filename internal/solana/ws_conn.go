package solana

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Default WebSocket configuration values.
const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultReadTimeout      = 60 * time.Second
	DefaultWriteTimeout     = 10 * time.Second
)

// ConnConfig configures a logs WebSocket connection.
type ConnConfig struct {
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
}

func (c *ConnConfig) setDefaults() {
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
}

// LogsConn is a single WebSocket connection to a Solana node for logs
// subscriptions. It does not reconnect; the caller owns the connection
// lifecycle and dials a fresh one after failures.
type LogsConn struct {
	conn      *websocket.Conn
	cfg       ConnConfig
	writeMu   sync.Mutex
	requestID int64
}

// DialLogs opens a WebSocket connection to the given endpoint.
func DialLogs(ctx context.Context, endpoint string, cfg ConnConfig) (*LogsConn, error) {
	cfg.setDefaults()

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	return &LogsConn{conn: conn, cfg: cfg}, nil
}

// SubscribeLogs sends a logsSubscribe request for transactions
// mentioning the filter addresses, at confirmed commitment. The ack
// arrives asynchronously via ReadMessage.
func (c *LogsConn) SubscribeLogs(filter LogsFilter) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.requestID++
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      uint64(c.requestID),
		Method:  "logsSubscribe",
		Params: []interface{}{
			map[string]interface{}{"mentions": filter.Mentions},
			map[string]interface{}{"commitment": "confirmed"},
		},
	}

	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// ReadMessage blocks until the next frame arrives or the read deadline
// expires.
func (c *LogsConn) ReadMessage() ([]byte, error) {
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	return data, nil
}

// Ping sends a WebSocket ping control frame.
func (c *LogsConn) Ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.cfg.WriteTimeout))
}

// Close closes the underlying connection.
func (c *LogsConn) Close() error {
	return c.conn.Close()
}
