package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// StreamConfig configures the multiplexed stream client.
type StreamConfig struct {
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	PingInterval      time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
}

// DefaultStreamConfig returns default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// StreamClient is the multiplexed transport: a single connection
// carrying one combined subscription over all programs and wallets,
// delivering tagged StreamUpdate frames. Unlike the push-socket
// transport there is exactly one subscription per connection; the
// filter is replayed whole after a reconnect.
type StreamClient struct {
	endpoint string
	token    string
	config   StreamConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool
	reqID  atomic.Uint64

	filter   *StreamFilter
	filterMu sync.RWMutex

	updates chan StreamUpdate

	reconnecting atomic.Bool
	done         chan struct{}
	wg           sync.WaitGroup
}

// NewStreamClient connects to the stream endpoint. The token is sent
// as a bearer header during the handshake; an empty token omits it.
func NewStreamClient(ctx context.Context, endpoint, token string, config *StreamConfig) (*StreamClient, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}

	c := &StreamClient{
		endpoint: endpoint,
		token:    token,
		config:   cfg,
		updates:  make(chan StreamUpdate, 10000),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

func (c *StreamClient) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	var header http.Header
	if c.token != "" {
		header = http.Header{"Authorization": []string{"Bearer " + c.token}}
	}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, header)
	if err != nil {
		return fmt.Errorf("stream dial: %w", err)
	}
	c.conn = conn
	return nil
}

// Subscribe installs the combined filter and returns the update
// channel. Only one filter is active at a time; calling Subscribe
// again replaces it.
func (c *StreamClient) Subscribe(ctx context.Context, filter StreamFilter) (<-chan StreamUpdate, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("client closed")
	}

	c.filterMu.Lock()
	c.filter = &filter
	c.filterMu.Unlock()

	if err := c.sendSubscribe(ctx, filter); err != nil {
		return nil, err
	}
	return c.updates, nil
}

// sendSubscribe writes the combined subscription request. The stream
// protocol acknowledges implicitly: updates start flowing, and a bad
// filter comes back as an error frame handled by the read loop.
func (c *StreamClient) sendSubscribe(ctx context.Context, filter StreamFilter) error {
	req := streamRequest{
		ID:     c.reqID.Add(1),
		Method: "subscribe",
		Params: streamSubscribeParams{
			Programs:   filter.Programs,
			Wallets:    filter.Wallets,
			Mode:       filter.Mode,
			Commitment: "confirmed",
		},
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// Close closes the connection and the update channel.
func (c *StreamClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	close(c.updates)
	return nil
}

func (c *StreamClient) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if !c.reconnecting.Swap(true) {
				go c.reconnect(reconnectDelay)
			}
			reconnectDelay *= 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = c.config.ReconnectDelay
		c.handleMessage(message)
	}
}

// reconnect re-establishes the connection and replays the combined
// filter.
func (c *StreamClient) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		return
	}

	c.filterMu.RLock()
	filter := c.filter
	c.filterMu.RUnlock()
	if filter == nil {
		return
	}

	if err := c.sendSubscribe(ctx, *filter); err != nil {
		log.Printf("[stream] resubscribe failed: %v", err)
	}
}

func (c *StreamClient) handleMessage(message []byte) {
	var frame streamFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		log.Printf("[stream] malformed frame: %v", err)
		return
	}

	switch frame.Type {
	case "update":
		if frame.Update == nil {
			return
		}
		select {
		case c.updates <- *frame.Update:
		case <-c.done:
		}
	case "error":
		log.Printf("[stream] server error: %s", frame.Message)
	case "ack", "pong", "":
		// Acknowledgements carry nothing we act on.
	default:
		log.Printf("[stream] unknown frame type %q", frame.Type)
	}
}

func (c *StreamClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

// Stream wire types.

type streamRequest struct {
	ID     uint64                `json:"id"`
	Method string                `json:"method"`
	Params streamSubscribeParams `json:"params"`
}

type streamSubscribeParams struct {
	Programs   []string `json:"programs,omitempty"`
	Wallets    []string `json:"wallets,omitempty"`
	Mode       string   `json:"mode,omitempty"`
	Commitment string   `json:"commitment"`
}

type streamFrame struct {
	Type    string        `json:"type"`
	Message string        `json:"message,omitempty"`
	Update  *StreamUpdate `json:"update,omitempty"`
}
