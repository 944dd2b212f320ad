package connection

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// DefaultSettle is how long Do keeps reading after the first response
// line, so multi-line list replies arrive whole.
const DefaultSettle = 50 * time.Millisecond

// DefaultTimeout is used when NewClient gets a non-positive timeout.
const DefaultTimeout = 5 * time.Second

// Client speaks the memkv line protocol over TCP. It is not safe for
// concurrent use.
type Client struct {
	addr    string
	timeout time.Duration
	settle  time.Duration

	conn net.Conn
	r    *bufio.Reader
}

// NewClient creates a client for addr. timeout bounds dialing and waiting
// for the first response line.
func NewClient(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{addr: addr, timeout: timeout, settle: DefaultSettle}
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Connect dials the server if not already connected.
func (c *Client) Connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", c.addr, err)
	}
	c.conn = conn
	c.r = bufio.NewReader(conn)
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Do sends one command and returns the response without the trailing
// newline. Multi-line responses are joined with "\n".
func (c *Client) Do(ctx context.Context, cmd string) (string, error) {
	if err := c.Connect(ctx); err != nil {
		return "", err
	}
	if _, err := c.conn.Write([]byte(cmd)); err != nil {
		return "", fmt.Errorf("send: %w", err)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetReadDeadline(deadline)
	first, err := c.r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}

	lines := []string{strings.TrimSuffix(first, "\n")}
	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.settle))
		next, err := c.r.ReadString('\n')
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				// A partial line stays buffered for the next read.
				break
			}
			return "", fmt.Errorf("read: %w", err)
		}
		lines = append(lines, strings.TrimSuffix(next, "\n"))
	}
	_ = c.conn.SetReadDeadline(time.Time{})
	return strings.Join(lines, "\n"), nil
}

// Stream calls fn for every line the server pushes until ctx ends or the
// connection closes.
func (c *Client) Stream(ctx context.Context, fn func(line string)) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_ = c.conn.SetReadDeadline(time.Time{})
	for {
		line, err := c.r.ReadString('\n')
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		fn(strings.TrimSuffix(line, "\n"))
	}
}
