package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/haukened/rr-dash/internal/dash/common/log"
	"github.com/haukened/rr-dash/internal/dash/domain"
)

const (
	// StreamQueryLog carries domain.QueryLogEvent frames.
	StreamQueryLog = "logs/live"
	// StreamPulse carries domain.PulseEvent frames.
	StreamPulse = "pulse/live"

	// Time allowed to write a control frame to the server.
	writeWait = 10 * time.Second
	// Time allowed to read the next frame or pong from the server.
	defaultPongWait = 60 * time.Second

	errHandlerRequired = "handler is required"
	errDialFailed      = "dial %s: %w"
)

// ErrAlreadySubscribed is returned when Subscribe is called on a channel that
// has left the unsubscribed state. A channel serves exactly one subscription.
var ErrAlreadySubscribed = errors.New("channel already subscribed")

// ErrClosedWhileConnecting is returned by Subscribe when Close won the race
// against the handshake.
var ErrClosedWhileConnecting = errors.New("channel closed while connecting")

// Handler receives each well-formed JSON frame in arrival order.
type Handler func(json.RawMessage)

// Options configures a Channel.
type Options struct {
	// Jar supplies the session cookies for the upgrade request.
	Jar http.CookieJar
	// Dialer overrides websocket.DefaultDialer; Jar is applied to a copy.
	Dialer *websocket.Dialer
	Logger log.Logger
	// OnState observes every state transition.
	OnState func(domain.StreamState)
	// PongWait bounds the silence tolerated from the server before the
	// stream counts as dropped. Pings go out at 9/10 of it. Defaults to 60s.
	PongWait time.Duration
}

// Channel is a single-use subscription to one server-push stream. It never
// reconnects; after a terminal state a new Channel must be created.
type Channel struct {
	url     string
	stream  string
	id      string
	dialer  *websocket.Dialer
	logger  log.Logger
	onState func(domain.StreamState)

	pongWait   time.Duration
	pingPeriod time.Duration

	// dispatchMu is held for the duration of every handler call.
	dispatchMu sync.Mutex

	mu    sync.Mutex
	state domain.StreamState
	conn  *websocket.Conn
	done  chan struct{}
}

// NewChannel prepares a channel for the named stream under origin.
func NewChannel(origin domain.Origin, stream string, opts Options) *Channel {
	d := *websocket.DefaultDialer
	if opts.Dialer != nil {
		d = *opts.Dialer
	}
	if opts.Jar != nil {
		d.Jar = opts.Jar
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.PongWait <= 0 {
		opts.PongWait = defaultPongWait
	}
	id := uuid.NewString()
	url := origin.StreamURL(stream)
	return &Channel{
		url:     url,
		stream:  stream,
		id:      id,
		dialer:  &d,
		logger:  opts.Logger.With(map[string]any{"stream": stream, "subscription": id}),
		onState: opts.OnState,

		pongWait:   opts.PongWait,
		pingPeriod: opts.PongWait * 9 / 10,

		state: domain.StreamUnsubscribed,
		done:  make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (c *Channel) State() domain.StreamState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed once the channel reaches a terminal state.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Subscribe opens the stream and starts dispatching frames to handler.
// It returns once the connection is open or has failed; dispatch continues
// on a separate goroutine until Close or a transport error.
func (c *Channel) Subscribe(ctx context.Context, handler Handler) error {
	if handler == nil {
		return fmt.Errorf(errHandlerRequired)
	}

	c.mu.Lock()
	if c.state != domain.StreamUnsubscribed {
		c.mu.Unlock()
		return ErrAlreadySubscribed
	}
	c.state = domain.StreamConnecting
	c.mu.Unlock()
	c.notify(domain.StreamConnecting)

	c.logger.Debug(map[string]any{"url": c.url}, "Opening live stream")
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		fields := map[string]any{"error": err.Error()}
		if resp != nil {
			fields["status"] = resp.StatusCode
		}
		c.logger.Warn(fields, "Live stream failed to open")
		c.finish(domain.StreamClosedError)
		return fmt.Errorf(errDialFailed, c.stream, err)
	}

	c.mu.Lock()
	if c.state != domain.StreamConnecting {
		c.mu.Unlock()
		conn.Close()
		return ErrClosedWhileConnecting
	}
	c.state = domain.StreamOpen
	c.conn = conn
	c.mu.Unlock()
	c.notify(domain.StreamOpen)
	c.logger.Info(nil, "Live stream open")

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})
	go c.readPump(conn, handler)
	go c.pingLoop(conn)
	return nil
}

// Close tears the subscription down. Open and connecting channels move to
// closed-clean; terminal channels are left as they are. Close waits for a
// handler call in progress, so no handler runs once it returns. It must not
// be called from the handler itself; use Done or a separate goroutine.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.state.Terminal() {
		c.mu.Unlock()
		return nil
	}
	conn := c.conn
	c.state = domain.StreamClosedClean
	close(c.done)
	c.mu.Unlock()
	c.notify(domain.StreamClosedClean)

	c.dispatchMu.Lock()
	// Wait out a handler call in progress.
	c.dispatchMu.Unlock()

	if conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		c.logger.Debug(map[string]any{"error": err.Error()}, "Failed to send close frame")
	}
	c.logger.Info(nil, "Live stream closed")
	return conn.Close()
}

// readPump dispatches frames until the connection fails or is closed. A
// server that stays silent past pongWait, pongs included, counts as dropped.
func (c *Channel) readPump(conn *websocket.Conn, handler Handler) {
	defer conn.Close()
	for {
		_ = conn.SetReadDeadline(time.Now().Add(c.pongWait))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.finish(domain.StreamClosedError) {
				fields := map[string]any{"error": err.Error()}
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.Info(fields, "Live stream ended by server")
				} else {
					c.logger.Warn(fields, "Live stream dropped")
				}
			}
			return
		}
		if !json.Valid(message) {
			c.logger.Warn(map[string]any{"bytes": len(message)}, "Skipping malformed live frame")
			continue
		}
		if !c.dispatch(handler, message) {
			return
		}
	}
}

// dispatch calls handler while the channel is open and reports whether it
// did. The state check and the call are atomic with respect to Close.
func (c *Channel) dispatch(handler Handler, message []byte) bool {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	c.mu.Lock()
	open := c.state == domain.StreamOpen
	c.mu.Unlock()
	if !open {
		return false
	}
	handler(json.RawMessage(message))
	return true
}

// pingLoop keeps the server answering so a dead peer trips the read deadline.
func (c *Channel) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug(map[string]any{"error": err.Error()}, "Failed to send ping")
				return
			}
		}
	}
}

// finish moves a non-terminal channel to the given terminal state and
// reports whether the transition happened.
func (c *Channel) finish(to domain.StreamState) bool {
	c.mu.Lock()
	if c.state.Terminal() {
		c.mu.Unlock()
		return false
	}
	c.state = to
	close(c.done)
	c.mu.Unlock()
	c.notify(to)
	return true
}

func (c *Channel) notify(s domain.StreamState) {
	if c.onState != nil {
		c.onState(s)
	}
}
