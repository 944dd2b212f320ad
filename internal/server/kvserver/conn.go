package kvserver

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/internal/pubsub"
	"github.com/yndnr/memkv-go/internal/server/protocol"
	"github.com/yndnr/memkv-go/internal/telemetry/logger"
	"github.com/yndnr/memkv-go/pkg/queue"
)

// writeTimeout bounds a single response or push write.
const writeTimeout = 10 * time.Second

// conn is one client connection. Only serve's goroutine touches joined,
// monitoring and the limiter; writes are shared with the push goroutine.
type conn struct {
	id      uint64
	traceID string
	srv     *Server
	nc      net.Conn
	log     logger.Logger

	writeMu sync.Mutex

	joined     map[string]struct{}
	monitoring bool

	limiter   *rate.Limiter
	rateLimit int

	pushOnce sync.Once
	pushDone chan struct{}

	closed atomic.Bool
	quit   bool
}

func newConn(s *Server, nc net.Conn) *conn {
	id := s.broker.NextID()
	traceID := ulid.Make().String()
	return &conn{
		id:      id,
		traceID: traceID,
		srv:     s,
		nc:      nc,
		log: logger.FromSlog(s.logger).With(
			"conn_id", id,
			"trace_id", traceID,
			"remote", nc.RemoteAddr().String(),
		),
		joined: make(map[string]struct{}),
	}
}

func (c *conn) close() {
	if c.closed.CompareAndSwap(false, true) {
		_ = c.nc.Close()
	}
}

// serve runs the read, dispatch, respond cycle until the client leaves,
// the read fails or times out, or a close command arrives.
func (c *conn) serve(ctx context.Context) {
	ctx = logger.WithConnID(ctx, c.id)
	ctx = logger.WithTraceID(ctx, c.traceID)
	ctx = logger.WithLogger(ctx, c.log)
	ctx, cancel := context.WithCancel(ctx)

	defer func() {
		c.srv.broker.Release(c.id)
		cancel()
		c.close()
		if c.pushDone != nil {
			<-c.pushDone
		}
		logger.L(ctx).Debug("connection closed")
	}()

	logger.L(ctx).Debug("connection opened")

	var buf []byte
	for !c.quit {
		size := c.srv.live.BufferSize()
		if cap(buf) < size {
			buf = make([]byte, size)
		}
		buf = buf[:size]

		if timeout := c.srv.live.Timeout(); timeout > 0 {
			_ = c.nc.SetReadDeadline(time.Now().Add(timeout))
		} else {
			_ = c.nc.SetReadDeadline(time.Time{})
		}

		n, err := c.nc.Read(buf)
		if n > 0 {
			if !c.handle(ctx, buf[:n]) {
				return
			}
		}
		if err != nil {
			c.logReadError(ctx, err)
			return
		}
	}
}

// handle processes one read. It returns false when the connection must
// close.
func (c *conn) handle(ctx context.Context, raw []byte) bool {
	req, err := protocol.Parse(raw)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrEmptyInput):
		return true
	case errors.Is(err, domain.ErrNonUTF8):
		logger.L(ctx).Warn("closing connection on non utf-8 input", "bytes", len(raw))
		return false
	default:
		c.trace("request: "+strings.TrimSpace(string(raw)), false)
		return c.respond(ctx, protocol.Error(err))
	}

	c.trace("request: "+req.String(), false)

	if !c.allow() {
		c.srv.metrics.RateLimitHit()
		return c.respond(ctx, protocol.Error(domain.ErrRateLimited))
	}

	start := time.Now()
	resp := c.dispatch(ctx, req)
	c.srv.metrics.ObserveCommand(req.Verb, req.Family.String(), resp.IsError(), time.Since(start))

	if resp.IsError() {
		logger.L(ctx).Debug("command failed", "verb", req.Verb, "error", resp.Err())
	}
	return c.respond(ctx, resp)
}

// respond writes resp, then records it in the trace.
func (c *conn) respond(ctx context.Context, resp protocol.Response) bool {
	err := c.write(resp.Encode())
	c.trace("response: "+resp.String(), true)
	if err != nil {
		logger.L(ctx).Warn("write failed", "error", domain.ErrIO.WithCause(err))
		return false
	}
	return true
}

// trace sends text to the logger sinks and the monitor channel.
func (c *conn) trace(text string, verbose bool) {
	c.srv.broker.EmitLog(c.id, text, verbose)
	c.srv.broker.EmitMonitor(c.id, strings.ReplaceAll(text, "\n", " "))
}

// allow applies the live per-connection rate limit. A changed limit starts
// a fresh bucket.
func (c *conn) allow() bool {
	if limit := c.srv.live.RateLimit(); limit != c.rateLimit {
		c.rateLimit = limit
		c.limiter = nil
		if limit > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(limit), limit)
		}
	}
	return c.limiter == nil || c.limiter.Allow()
}

func (c *conn) write(b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.nc.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := c.nc.Write(b)
	return err
}

// startPush launches the goroutine that forwards mailbox deliveries to the
// socket. It runs until the mailbox is released or ctx ends.
func (c *conn) startPush(ctx context.Context, mailbox *queue.Queue[pubsub.Message]) {
	c.pushOnce.Do(func() {
		c.pushDone = make(chan struct{})
		go func() {
			defer close(c.pushDone)
			for {
				msg, err := mailbox.Pop(ctx)
				if err != nil {
					return
				}
				var out []byte
				if msg.Monitor() {
					out = protocol.PushMonitor(msg.Payload)
				} else {
					out = protocol.PushMessage(msg.Channel, msg.Payload)
				}
				if err := c.write(out); err != nil {
					logger.L(ctx).Debug("push write failed", "channel", msg.Channel, "error", err)
					return
				}
			}
		}()
	})
}

func (c *conn) logReadError(ctx context.Context, err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF):
		logger.L(ctx).Debug("client disconnected")
	case errors.As(err, &netErr) && netErr.Timeout():
		logger.L(ctx).Info("connection timed out")
	case c.closed.Load():
	default:
		logger.L(ctx).Warn("read failed", "error", domain.ErrIO.WithCause(err))
	}
}
