package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/yndnr/memkv-go/pkg/queue"
)

// ForwarderSettings is the live configuration read before every write.
type ForwarderSettings interface {
	Verbose() bool
	LogFile() string
}

type line struct {
	at      time.Time
	text    string
	verbose bool
}

// Forwarder writes command log lines on a single background goroutine.
// Deliver never blocks the caller.
type Forwarder struct {
	settings ForwarderSettings
	out      io.Writer
	logger   *slog.Logger
	now      func() time.Time

	q *queue.Queue[line]

	file     *os.File
	filePath string

	startOnce sync.Once
	done      chan struct{}
	started   bool
}

// ForwarderOption configures a Forwarder.
type ForwarderOption func(*Forwarder)

// WithForwarderClock overrides the timestamp source.
func WithForwarderClock(now func() time.Time) ForwarderOption {
	return func(f *Forwarder) {
		f.now = now
	}
}

// WithForwarderLogger sets where file errors are reported.
func WithForwarderLogger(logger *slog.Logger) ForwarderOption {
	return func(f *Forwarder) {
		f.logger = logger
	}
}

// NewForwarder creates a forwarder writing to out unless the live
// settings name a log file.
func NewForwarder(settings ForwarderSettings, out io.Writer, opts ...ForwarderOption) *Forwarder {
	if out == nil {
		out = os.Stdout
	}
	f := &Forwarder{
		settings: settings,
		out:      out,
		logger:   slog.Default(),
		now:      time.Now,
		q:        queue.New[line](),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Deliver queues text for writing. Verbose lines are dropped at write
// time unless verbose logging is enabled.
func (f *Forwarder) Deliver(text string, verbose bool) {
	f.q.Push(line{at: f.now(), text: text, verbose: verbose})
}

// Start launches the writer goroutine.
func (f *Forwarder) Start() {
	f.startOnce.Do(func() {
		f.started = true
		go f.run()
	})
}

func (f *Forwarder) run() {
	defer close(f.done)
	for {
		l, err := f.q.Pop(context.Background())
		if errors.Is(err, queue.ErrClosed) {
			f.closeFile()
			return
		}
		f.write(l)
	}
}

func (f *Forwarder) write(l line) {
	if l.verbose && !f.settings.Verbose() {
		return
	}
	w := f.writer()
	if _, err := io.WriteString(w, l.at.Format(time.RFC3339)+" "+l.text+"\n"); err != nil {
		f.logger.Warn("command log write failed", "error", err)
	}
}

// writer returns the current destination, reopening the log file when
// the configured path changed.
func (f *Forwarder) writer() io.Writer {
	path := f.settings.LogFile()
	if path == f.filePath {
		if f.file != nil {
			return f.file
		}
		return f.out
	}

	f.closeFile()
	f.filePath = path
	if path == "" {
		return f.out
	}

	file, err := OpenFile(path)
	if err != nil {
		f.logger.Error("cannot open command log, using default output", "path", path, "error", err)
		return f.out
	}
	f.file = file
	return file
}

func (f *Forwarder) closeFile() {
	if f.file != nil {
		_ = f.file.Close()
		f.file = nil
	}
}

// Close stops accepting lines, writes what is queued and waits for the
// writer to finish.
func (f *Forwarder) Close(ctx context.Context) error {
	f.q.Close()
	f.startOnce.Do(func() {})
	if !f.started {
		return nil
	}
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
