package main

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOptions_Overrides(t *testing.T) {
	got := options{port: "127.0.0.1:7000", logLevel: "debug"}.overrides()
	require.Equal(t, map[string]any{"server.port": "127.0.0.1:7000", "log.level": "debug"}, got)
	require.Empty(t, options{}.overrides())
}

func TestLoadConfig_FlagBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memkv.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 127.0.0.1:7001\n  timeout: 9\n"), 0o600))

	cfg, err := loadConfig(newLoader(options{configFile: path, port: "127.0.0.1:7002"}))
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7002", cfg.Server.Port)
	require.Equal(t, 9, cfg.Server.Timeout)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := loadConfig(newLoader(options{logLevel: "loud"}))
	require.Error(t, err)
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	t.Setenv("MEMKV_LOG_LEVEL", "error")

	ctx, cancel := context.WithCancel(context.Background())
	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, options{
			port:    "127.0.0.1:0",
			started: func(addr string) { addrCh <- addr },
		})
	}()

	var addr string
	select {
	case addr = <-addrCh:
	case err := <-errCh:
		t.Fatalf("run() returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	nc, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	defer nc.Close()

	_, err = nc.Write([]byte("set foo bar"))
	require.NoError(t, err)
	require.NoError(t, nc.SetReadDeadline(time.Now().Add(2*time.Second)))
	resp, err := bufio.NewReader(nc).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "OK", strings.TrimSpace(resp))

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
}
