// Package logstream maintains a single reconnecting websocket connection to
// the compute backend's log feed.
package logstream

import (
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pdbench/internal/logging"
)

// State is the connection lifecycle state.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// frameTimeLayout is the backend's log timestamp format.
const frameTimeLayout = "2006-01-02 15:04:05,000"

const (
	baseBackoff = time.Second
	maxBackoff  = 30 * time.Second
)

// Message is one parsed log line.
type Message struct {
	Timestamp time.Time
	Text      string
}

// Channel is a reconnecting log stream. After a close or error the next
// connection attempt is scheduled with exponential backoff; a single
// in-flight guard makes sure two attempts never overlap. Teardown cancels
// any pending reconnect timer so nothing outlives Close.
type Channel struct {
	url    string
	dialer *websocket.Dialer

	mu       sync.Mutex
	state    State
	attempts int
	inFlight bool
	pending  *time.Timer
	conn     *websocket.Conn
	closed   bool
	unread   int
	viewOpen bool

	msgs chan Message
}

// New creates a channel for the given websocket URL. Call Start to connect.
func New(url string) *Channel {
	return &Channel{
		url:    url,
		dialer: websocket.DefaultDialer,
		msgs:   make(chan Message, 256),
	}
}

// Start begins connecting. It returns immediately; messages arrive on
// Messages.
func (c *Channel) Start() {
	c.connect()
}

// Messages delivers parsed log lines. The channel is never closed; callers
// stop reading after Close.
func (c *Channel) Messages() <-chan Message {
	return c.msgs
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// UnreadCount returns the number of messages received while the log view was
// closed.
func (c *Channel) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// SetViewOpen records whether the log view is visible. Opening the view
// resets the unread counter; while open, messages don't count as unread.
func (c *Channel) SetViewOpen(open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewOpen = open
	if open {
		c.unread = 0
	}
}

// Close tears the channel down: the pending reconnect timer is cancelled and
// the socket closed. Safe to call more than once.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = StateClosed
}

func (c *Channel) connect() {
	c.mu.Lock()
	if c.closed || c.inFlight {
		c.mu.Unlock()
		return
	}
	c.inFlight = true
	c.pending = nil
	c.state = StateConnecting
	url := c.url
	c.mu.Unlock()

	go func() {
		conn, _, err := c.dialer.Dial(url, nil)

		c.mu.Lock()
		c.inFlight = false
		if c.closed {
			c.mu.Unlock()
			if conn != nil {
				conn.Close()
			}
			return
		}
		if err != nil {
			logging.Logger.Warn("log stream connect failed", "error", err, "attempts", c.attempts)
			c.state = StateClosed
			c.scheduleReconnectLocked()
			c.mu.Unlock()
			return
		}
		c.conn = conn
		c.state = StateOpen
		c.attempts = 0
		c.mu.Unlock()

		logging.Logger.Info("log stream connected", "url", url)
		c.readLoop(conn)
	}()
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()

			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			if c.closed {
				c.mu.Unlock()
				return
			}
			logging.Logger.Warn("log stream closed", "error", err)
			c.state = StateClosed
			c.scheduleReconnectLocked()
			c.mu.Unlock()
			return
		}

		msg := ParseFrame(string(data))

		c.mu.Lock()
		if !c.viewOpen {
			c.unread++
		}
		c.mu.Unlock()

		select {
		case c.msgs <- msg:
		default:
			// Slow consumer; drop rather than block the read loop
		}
	}
}

// scheduleReconnectLocked arms the backoff timer. Caller holds c.mu.
func (c *Channel) scheduleReconnectLocked() {
	if c.closed || c.pending != nil {
		return
	}
	delay := Backoff(c.attempts)
	c.attempts++
	c.pending = time.AfterFunc(delay, c.connect)
	logging.Logger.Debug("log stream reconnect scheduled", "delay", delay, "attempts", c.attempts)
}

// Backoff returns the reconnect delay for the given attempt count:
// min(1s * 2^attempts, 30s).
func Backoff(attempts int) time.Duration {
	if attempts > 5 {
		return maxBackoff
	}
	d := baseBackoff << uint(attempts)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// ParseFrame parses a pipe-delimited "timestamp|message" wire line. A
// malformed or missing timestamp falls back to the receipt time rather than
// dropping the line.
func ParseFrame(line string) Message {
	ts, text, ok := strings.Cut(line, "|")
	if !ok {
		return Message{Timestamp: time.Now(), Text: strings.TrimSpace(line)}
	}

	parsed, err := time.ParseInLocation(frameTimeLayout, strings.TrimSpace(ts), time.Local)
	if err != nil {
		return Message{Timestamp: time.Now(), Text: strings.TrimSpace(text)}
	}
	return Message{Timestamp: parsed, Text: strings.TrimSpace(text)}
}
