// Package client talks to a gridcalc session server over its websocket
// endpoint.
package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog/log"

	"github.com/witanlabs/gridcalc/server"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxAttempts    = 3
	defaultBaseBackoff    = 200 * time.Millisecond
	defaultMaxBackoff     = 2 * time.Second
	defaultUserAgent      = "gridcalc/dev"
)

// ErrNotConnected is returned by requests made before Connect or after Close.
var ErrNotConnected = errors.New("not connected")

// Client is one session on a gridcalc server. Requests are sent one at a
// time; a Client is safe for concurrent use.
type Client struct {
	URL        string
	UserAgent  string
	HTTPClient *http.Client

	// reqMu serializes requests; mu guards the connection fields and is
	// never held across network I/O.
	reqMu   sync.Mutex
	mu      sync.Mutex
	conn    *websocket.Conn
	session string
	nextID  int64

	requestTimeout time.Duration
	maxAttempts    int
	baseBackoff    time.Duration
	maxBackoff     time.Duration
	sleep          func(time.Duration)
	randInt63n     func(int64) int64
	now            func() time.Time
}

// New creates a client for the server at baseURL. The URL may use http,
// https, ws or wss; "/ws" is appended when it has no path.
func New(baseURL string) *Client {
	return &Client{
		URL:            strings.TrimRight(baseURL, "/"),
		UserAgent:      defaultUserAgent,
		HTTPClient:     &http.Client{},
		requestTimeout: defaultRequestTimeout,
		maxAttempts:    defaultMaxAttempts,
		baseBackoff:    defaultBaseBackoff,
		maxBackoff:     defaultMaxBackoff,
		sleep:          time.Sleep,
		randInt63n:     rand.Int63n,
		now:            time.Now,
	}
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server URL %q: scheme must be http, https, ws or wss", c.URL)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Connect opens the session and returns the server's greeting, which holds
// the session ID and the initial document. Failed handshakes are retried
// with backoff when the failure looks transient.
func (c *Client) Connect(ctx context.Context) (*server.Reply, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}
	conn, err := c.dialWithRetry(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	readCtx, cancel := c.withTimeout(ctx)
	defer cancel()
	var hello server.Reply
	if err := wsjson.Read(readCtx, conn, &hello); err != nil {
		conn.Close(websocket.StatusInternalError, "")
		return nil, fmt.Errorf("reading greeting: %w", err)
	}
	if !hello.OK {
		conn.Close(websocket.StatusNormalClosure, "")
		return nil, &APIError{Message: hello.Error}
	}

	c.mu.Lock()
	c.conn, c.session, c.nextID = conn, hello.Session, 0
	c.mu.Unlock()
	log.Debug().Str("url", endpoint).Str("session", hello.Session).Msg("connected")
	return &hello, nil
}

// Session returns the ID of the open session.
func (c *Client) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Close ends the session. A request in flight fails once the connection
// is gone.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn, c.session = nil, ""
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close(websocket.StatusNormalClosure, "")
}

// drop forgets conn after a failed exchange so later calls report
// ErrNotConnected.
func (c *Client) drop(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn, c.session = nil, ""
	}
	c.mu.Unlock()
	conn.CloseNow()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.requestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func (c *Client) dialWithRetry(ctx context.Context, endpoint string) (*websocket.Conn, error) {
	maxAttempts := c.maxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	userAgent := strings.TrimSpace(c.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	header := http.Header{}
	header.Set("User-Agent", userAgent)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		dialCtx, cancel := c.withTimeout(ctx)
		conn, resp, err := websocket.Dial(dialCtx, endpoint, &websocket.DialOptions{
			HTTPClient: c.HTTPClient,
			HTTPHeader: header,
		})
		cancel()
		if err == nil {
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		status, retryAfter := 0, ""
		if resp != nil {
			status, retryAfter = resp.StatusCode, resp.Header.Get("Retry-After")
		}
		if attempt < maxAttempts && (shouldRetryStatus(status) || isRetryableTransportError(err)) {
			log.Debug().Err(err).Int("attempt", attempt).Int("status", status).Msg("retrying connect")
			c.sleepWithBackoff(attempt, retryAfter)
			continue
		}
		if status != 0 && status != http.StatusSwitchingProtocols {
			return nil, &APIError{StatusCode: status, Message: err.Error(), RetryAfter: retryAfter}
		}
		return nil, fmt.Errorf("connecting to %s failed after %d attempt(s): %w", endpoint, attempt, err)
	}

	return nil, fmt.Errorf("connecting to %s failed after %d attempt(s)", endpoint, maxAttempts)
}

func isRetryableTransportError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// the server may still be starting up
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func shouldRetryStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func (c *Client) sleepWithBackoff(attempt int, retryAfterHeader string) {
	if d, ok := c.parseRetryAfter(retryAfterHeader); ok {
		c.sleep(d)
		return
	}

	base := c.baseBackoff
	if base <= 0 {
		base = defaultBaseBackoff
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay <= 0 {
			delay = defaultMaxBackoff
			break
		}
	}

	maxBackoff := c.maxBackoff
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}
	if delay > maxBackoff {
		delay = maxBackoff
	}
	if delay <= 0 {
		return
	}

	// Full jitter in [0, delay).
	if c.randInt63n != nil {
		delay = time.Duration(c.randInt63n(int64(delay)))
	}
	c.sleep(delay)
}

func (c *Client) parseRetryAfter(headerValue string) (time.Duration, bool) {
	v := strings.TrimSpace(headerValue)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		now := time.Now
		if c.now != nil {
			now = c.now
		}
		d := t.Sub(now())
		if d > 0 {
			return d, true
		}
	}
	return 0, false
}

// Do sends one request and waits for its reply. A reply with ok=false is
// returned as an *APIError. If sending or reading fails, including when ctx
// expires mid-request, the connection is dropped and the client must
// Connect again.
func (c *Client) Do(ctx context.Context, req server.Request) (*server.Reply, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	c.nextID++
	req.ID = c.nextID
	c.mu.Unlock()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := wsjson.Write(ctx, conn, req); err != nil {
		c.drop(conn)
		return nil, fmt.Errorf("sending %s: %w", req.Op, err)
	}
	for {
		var reply server.Reply
		if err := wsjson.Read(ctx, conn, &reply); err != nil {
			c.drop(conn)
			return nil, fmt.Errorf("reading %s reply: %w", req.Op, err)
		}
		if reply.ID != req.ID {
			log.Debug().Int64("id", reply.ID).Int64("want", req.ID).Msg("skipping stale reply")
			continue
		}
		if !reply.OK {
			return &reply, &APIError{Op: req.Op, Message: reply.Error}
		}
		return &reply, nil
	}
}
