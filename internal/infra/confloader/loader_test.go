package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Server struct {
		Port       string        `koanf:"port"`
		Timeout    int           `koanf:"timeout"`
		BufferSize int           `koanf:"buffer_size"`
		AcceptPoll time.Duration `koanf:"accept_poll"`
	} `koanf:"server"`
	Store struct {
		AtomicMoves bool `koanf:"atomic_moves"`
	} `koanf:"store"`
	DBFilename string `koanf:"dbfilename"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memkv.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/path/to/memkv.yaml"))
	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want TEST_", l.envPrefix)
	}
	if l.FilePath() != "/path/to/memkv.yaml" {
		t.Errorf("FilePath() = %q", l.FilePath())
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "0.0.0.0:7000"
  timeout: 15
`)

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := l.GetString("server.port"); got != "0.0.0.0:7000" {
		t.Errorf("server.port = %q", got)
	}
	if got := l.GetInt("server.timeout"); got != 15 {
		t.Errorf("server.timeout = %d", got)
	}

	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") error = %v", err)
	}
	if err := l.LoadFile("/nonexistent/memkv.yaml"); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
}

func TestLoader_EnvKeyMapping(t *testing.T) {
	l := NewLoader()

	tests := map[string]string{
		"MEMKV_SERVER_PORT":        "server.port",
		"MEMKV_SERVER_BUFFER_SIZE": "server.buffer_size",
		"MEMKV_STORE_ATOMIC_MOVES": "store.atomic_moves",
		"MEMKV_DBFILENAME":         "dbfilename",
	}
	for in, want := range tests {
		if got := l.envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("MEMKV_SERVER_BUFFER_SIZE", "2048")
	t.Setenv("MEMKV_STORE_ATOMIC_MOVES", "true")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if got := l.GetInt("server.buffer_size"); got != 2048 {
		t.Errorf("server.buffer_size = %d, want 2048", got)
	}
	if !l.GetBool("store.atomic_moves") {
		t.Error("store.atomic_moves should be true")
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"server.port": "localhost:3000"}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	var cfg testConfig
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg.Server.Port != "localhost:3000" {
		t.Errorf("Port = %q, want localhost:3000", cfg.Server.Port)
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "from-file:1"
  timeout: 5
dbfilename: file.db
`)
	t.Setenv("MEMKV_SERVER_PORT", "from-env:2")
	t.Setenv("MEMKV_DBFILENAME", "env.db")

	l := NewLoader(
		WithConfigFile(path),
		WithOverrides(map[string]any{"dbfilename": "flag.db"}),
	)

	var cfg testConfig
	cfg.Server.BufferSize = 1024
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "from-env:2" {
		t.Errorf("Port = %q, env should override file", cfg.Server.Port)
	}
	if cfg.Server.Timeout != 5 {
		t.Errorf("Timeout = %d, want 5 from file", cfg.Server.Timeout)
	}
	if cfg.DBFilename != "flag.db" {
		t.Errorf("DBFilename = %q, overrides should win", cfg.DBFilename)
	}
	if cfg.Server.BufferSize != 1024 {
		t.Errorf("BufferSize = %d, unset keys should keep their default", cfg.Server.BufferSize)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() should be true after Load()")
	}
}

func TestLoader_DurationValues(t *testing.T) {
	path := writeConfig(t, "server:\n  accept_poll: 250ms\n")

	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.AcceptPoll != 250*time.Millisecond {
		t.Errorf("AcceptPoll = %v, want 250ms", cfg.Server.AcceptPoll)
	}
}

func TestLoader_Reload(t *testing.T) {
	path := writeConfig(t, "server:\n  timeout: 1\n")
	l := NewLoader(WithConfigFile(path))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Timeout != 1 {
		t.Fatalf("Timeout = %d, want 1", cfg.Server.Timeout)
	}

	if err := os.WriteFile(path, []byte("server:\n  timeout: 9\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	var next testConfig
	if err := l.Reload(&next); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if next.Server.Timeout != 9 {
		t.Errorf("Timeout after reload = %d, want 9", next.Server.Timeout)
	}
	if l.GetInt("server.timeout") != 9 {
		t.Errorf("loader still reports %d", l.GetInt("server.timeout"))
	}
}

func TestLoader_Load_BadFile(t *testing.T) {
	l := NewLoader(WithConfigFile("/nonexistent/memkv.yaml"))
	var cfg testConfig
	if err := l.Load(&cfg); err == nil {
		t.Error("Load() should fail when the config file is missing")
	}
}
