package tests

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yndnr/memkv-go/internal/cli/connection"
	"github.com/yndnr/memkv-go/internal/pubsub"
	"github.com/yndnr/memkv-go/internal/server/config"
	"github.com/yndnr/memkv-go/internal/server/httpserver"
	"github.com/yndnr/memkv-go/internal/server/kvserver"
	"github.com/yndnr/memkv-go/internal/storage/memory"
	"github.com/yndnr/memkv-go/internal/telemetry/metric"
)

type stack struct {
	kv   *kvserver.Server
	http *httpserver.Server
}

func startStack(t *testing.T) *stack {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Default()
	cfg.Server.Port = "127.0.0.1:0"

	store := memory.New(memory.WithLogger(logger), memory.WithSweepInterval(20*time.Millisecond))
	store.Start()
	t.Cleanup(func() { _ = store.Close() })

	broker := pubsub.NewBroker(pubsub.WithLogger(logger))
	reg := metric.NewRegistry()
	reg.MustRegister(metric.NewCollector(store, broker))

	kv := kvserver.New(config.NewLive(cfg), store, broker,
		kvserver.WithLogger(logger),
		kvserver.WithMetrics(reg),
		kvserver.WithAcceptPoll(20*time.Millisecond),
	)
	require.NoError(t, kv.Start(context.Background()))

	hs := httpserver.New("127.0.0.1:0", httpserver.NewRouter(&httpserver.RouterConfig{
		Metrics:    reg,
		ListenAddr: kv.ListenAddr,
		Logger:     logger,
	}), logger)
	require.NoError(t, hs.Start())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(ctx)
		_ = kv.Shutdown(ctx)
	})
	return &stack{kv: kv, http: hs}
}

func TestIntegration_Keyspace(t *testing.T) {
	s := startStack(t)
	ctx := context.Background()

	c := connection.NewClient(s.kv.ListenAddr(), 2*time.Second)
	defer c.Close()

	steps := []struct {
		cmd  string
		want string
	}{
		{"set user:1 alice", "OK"},
		{"set user:2 bob", "OK"},
		{"incr visits", "(integer) 1"},
		{"keys user:*", "1) user:1\n2) user:2"},
		{"rename user:2 user:3", "OK"},
		{"exists user:2 user:3", "(integer) 1"},
		{"lpush queue a b", "(integer) 2"},
		{"type queue", "list"},
		{"get queue", "Error: operation against a key holding the wrong kind of value"},
		{"expire user:1 1", "(integer) 1"},
		{"dbsize", "(integer) 4"},
	}
	for _, step := range steps {
		got, err := c.Do(ctx, step.cmd)
		require.NoError(t, err, step.cmd)
		require.Equal(t, step.want, got, step.cmd)
	}

	require.Eventually(t, func() bool {
		got, err := c.Do(ctx, "exists user:1")
		return err == nil && got == "(integer) 0"
	}, 3*time.Second, 50*time.Millisecond)
}

func TestIntegration_PubSub(t *testing.T) {
	s := startStack(t)
	ctx := context.Background()

	sub := connection.NewClient(s.kv.ListenAddr(), 2*time.Second)
	defer sub.Close()
	got, err := sub.Do(ctx, "subscribe news")
	require.NoError(t, err)
	require.Equal(t, "(integer) 1", got)

	var (
		mu    sync.Mutex
		lines []string
	)
	streamCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- sub.Stream(streamCtx, func(line string) {
			mu.Lock()
			lines = append(lines, line)
			mu.Unlock()
		})
	}()

	pub := connection.NewClient(s.kv.ListenAddr(), 2*time.Second)
	defer pub.Close()
	got, err = pub.Do(ctx, "publish news hello world")
	require.NoError(t, err)
	require.Equal(t, "(integer) 1", got)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(lines) == 1 && lines[0] == "message news hello world"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestIntegration_StatusAndMetrics(t *testing.T) {
	s := startStack(t)
	ctx := context.Background()

	c := connection.NewClient(s.kv.ListenAddr(), 2*time.Second)
	defer c.Close()
	_, err := c.Do(ctx, "set k v")
	require.NoError(t, err)

	h := connection.NewHTTPClient(s.http.Addr().String(), 2*time.Second)
	st, err := h.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, "healthy", st.Status)
	require.True(t, st.Ready)
	require.Equal(t, s.kv.ListenAddr(), st.Listen)

	resp, err := h.Get(ctx, "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	require.True(t, strings.Contains(text, `memkv_commands_total{status="ok",verb="set"} 1`), text)
	require.True(t, strings.Contains(text, "memkv_connections_active 1"), text)
}
