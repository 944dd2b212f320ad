package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type settings struct {
	mu      sync.Mutex
	verbose bool
	file    string
}

func (s *settings) Verbose() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verbose
}

func (s *settings) LogFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file
}

func (s *settings) setFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = path
}

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestForwarder(s *settings, out *bytes.Buffer) *Forwarder {
	f := NewForwarder(s, out, WithForwarderClock(func() time.Time { return fixedTime }))
	f.Start()
	return f
}

func closeForwarder(t *testing.T, f *Forwarder) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestForwarder_WritesLines(t *testing.T) {
	var out bytes.Buffer
	f := newTestForwarder(&settings{}, &out)

	f.Deliver("[client 1] set foo bar", false)
	f.Deliver("[client 1] OK", false)
	closeForwarder(t, f)

	want := "2026-03-01T12:00:00Z [client 1] set foo bar\n2026-03-01T12:00:00Z [client 1] OK\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestForwarder_VerboseGating(t *testing.T) {
	var out bytes.Buffer
	f := newTestForwarder(&settings{verbose: false}, &out)

	f.Deliver("quiet", false)
	f.Deliver("chatty", true)
	closeForwarder(t, f)

	if strings.Contains(out.String(), "chatty") {
		t.Error("verbose line written while verbose is off")
	}
	if !strings.Contains(out.String(), "quiet") {
		t.Error("non-verbose line missing")
	}

	out.Reset()
	f = newTestForwarder(&settings{verbose: true}, &out)
	f.Deliver("chatty", true)
	closeForwarder(t, f)
	if !strings.Contains(out.String(), "chatty") {
		t.Error("verbose line dropped while verbose is on")
	}
}

func TestForwarder_LogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.log")
	s := &settings{file: path}
	var out bytes.Buffer
	f := newTestForwarder(s, &out)

	f.Deliver("to file", false)
	closeForwarder(t, f)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file = %q", data)
	}
	if out.Len() != 0 {
		t.Errorf("default output used while a log file is set: %q", out.String())
	}
}

func TestForwarder_SwitchesFileAtRuntime(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.log")
	second := filepath.Join(dir, "b.log")

	s := &settings{file: first}
	f := NewForwarder(s, &bytes.Buffer{})

	// Drive writes synchronously so the switch point is deterministic.
	f.write(line{at: fixedTime, text: "one"})
	s.setFile(second)
	f.write(line{at: fixedTime, text: "two"})
	f.closeFile()

	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	if !strings.Contains(string(a), "one") || strings.Contains(string(a), "two") {
		t.Errorf("a.log = %q", a)
	}
	if !strings.Contains(string(b), "two") {
		t.Errorf("b.log = %q", b)
	}
}

func TestForwarder_BadFileFallsBack(t *testing.T) {
	var out bytes.Buffer
	s := &settings{file: filepath.Join(t.TempDir(), "no", "such", "dir.log")}
	f := newTestForwarder(s, &out)

	f.Deliver("still logged", false)
	closeForwarder(t, f)

	if !strings.Contains(out.String(), "still logged") {
		t.Errorf("output = %q, want fallback write", out.String())
	}
}

func TestForwarder_CloseWithoutStart(t *testing.T) {
	f := NewForwarder(&settings{}, &bytes.Buffer{})
	f.Deliver("dropped", false)
	if err := f.Close(context.Background()); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	f.Start()
	f.Deliver("after close", false)
}
