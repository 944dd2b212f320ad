package pubsub

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/pkg/glob"
	"github.com/yndnr/memkv-go/pkg/queue"
)

// MonitorChannel is the reserved channel carrying connection traces.
const MonitorChannel = "__monitor__"

// SystemID is the subscriber id reserved for the server itself.
const SystemID uint64 = 0

// Message is one delivery on a channel.
type Message struct {
	Channel string
	Payload string
}

// Monitor reports whether m was delivered on the monitor channel.
func (m Message) Monitor() bool {
	return m.Channel == MonitorChannel
}

// LogSink receives every line passed to EmitLog.
type LogSink interface {
	Deliver(text string, verbose bool)
}

type subscriber struct {
	id      uint64
	mailbox *queue.Queue[Message]
}

// Broker routes published messages to subscriber mailboxes.
type Broker struct {
	mu        sync.RWMutex
	channels  map[string][]subscriber
	mailboxes map[uint64]*queue.Queue[Message]

	sinkMu sync.RWMutex
	sinks  []LogSink

	nextID      atomic.Uint64
	keepMonitor bool
	logger      *slog.Logger
}

// Option configures the Broker.
type Option func(*Broker)

// WithKeepMonitor controls whether the monitor channel survives its last
// subscriber leaving.
func WithKeepMonitor(keep bool) Option {
	return func(b *Broker) {
		b.keepMonitor = keep
	}
}

// WithLogger sets the logger used for broker diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Broker) {
		b.logger = logger
	}
}

// NewBroker creates a broker with an empty monitor channel.
func NewBroker(opts ...Option) *Broker {
	b := &Broker{
		channels:    make(map[string][]subscriber),
		mailboxes:   make(map[uint64]*queue.Queue[Message]),
		keepMonitor: true,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.channels[MonitorChannel] = nil
	return b
}

// NextID allocates a fresh subscriber id. Ids start at 1.
func (b *Broker) NextID() uint64 {
	return b.nextID.Add(1)
}

// Mailbox returns the mailbox for id, creating it if needed.
func (b *Broker) Mailbox(id uint64) *queue.Queue[Message] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mailboxLocked(id)
}

func (b *Broker) mailboxLocked(id uint64) *queue.Queue[Message] {
	mb, ok := b.mailboxes[id]
	if !ok {
		mb = queue.New[Message]()
		b.mailboxes[id] = mb
	}
	return mb
}

// Subscribe adds id to channel and returns its mailbox. Subscribing an id
// that is already present is a no-op.
func (b *Broker) Subscribe(channel string, id uint64) *queue.Queue[Message] {
	b.mu.Lock()
	defer b.mu.Unlock()

	mb := b.mailboxLocked(id)
	subs := b.channels[channel]
	if slices.ContainsFunc(subs, func(s subscriber) bool { return s.id == id }) {
		return mb
	}
	b.channels[channel] = append(subs, subscriber{id: id, mailbox: mb})
	return mb
}

// Unsubscribe removes id from channel and reports whether it was present.
// A channel left without subscribers is deleted.
func (b *Broker) Unsubscribe(channel string, id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unsubscribeLocked(channel, id)
}

func (b *Broker) unsubscribeLocked(channel string, id uint64) bool {
	subs, ok := b.channels[channel]
	if !ok {
		return false
	}
	i := slices.IndexFunc(subs, func(s subscriber) bool { return s.id == id })
	if i < 0 {
		return false
	}

	subs = slices.Delete(subs, i, i+1)
	if len(subs) == 0 && !(channel == MonitorChannel && b.keepMonitor) {
		delete(b.channels, channel)
		return true
	}
	b.channels[channel] = subs
	return true
}

// Release unsubscribes id from every channel and closes its mailbox.
func (b *Broker) Release(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	left := 0
	for channel := range b.channels {
		if b.unsubscribeLocked(channel, id) {
			left++
		}
	}
	if mb, ok := b.mailboxes[id]; ok {
		mb.Close()
		delete(b.mailboxes, id)
	}
	if left > 0 {
		b.logger.Debug("subscriber released", "id", id, "channels", left)
	}
}

// Publish delivers payload to every subscriber of channel and returns how
// many accepted it. Unknown channels deliver to nobody.
func (b *Broker) Publish(channel, payload string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	msg := Message{Channel: channel, Payload: payload}
	delivered := 0
	for _, s := range b.channels[channel] {
		if s.mailbox.Push(msg) {
			delivered++
		}
	}
	return delivered
}

// ListChannels returns the sorted names of active channels matching the
// anchored glob pattern. The monitor channel is never listed.
func (b *Broker) ListChannels(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	p, err := glob.Compile(pattern)
	if err != nil {
		return nil, domain.ErrInvalidArgument.WithDetails("bad pattern").WithCause(err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	var names []string
	for name := range b.channels {
		if name != MonitorChannel && p.Match(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// SubscriberCount returns the number of subscribers on channel.
func (b *Broker) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels[channel])
}

// HasChannel reports whether channel is registered.
func (b *Broker) HasChannel(channel string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.channels[channel]
	return ok
}

// ChannelCount returns the number of active channels, excluding the
// monitor channel.
func (b *Broker) ChannelCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := len(b.channels)
	if _, ok := b.channels[MonitorChannel]; ok {
		n--
	}
	return n
}

// RegisterLogger appends sink to the logger fan-out.
func (b *Broker) RegisterLogger(sink LogSink) {
	b.sinkMu.Lock()
	defer b.sinkMu.Unlock()
	b.sinks = append(b.sinks, sink)
}

// EmitLog sends "[client <id>] <text>" to every registered logger sink.
func (b *Broker) EmitLog(id uint64, text string, verbose bool) {
	b.sinkMu.RLock()
	sinks := slices.Clone(b.sinks)
	b.sinkMu.RUnlock()

	line := fmt.Sprintf("[client %d] %s", id, text)
	for _, sink := range sinks {
		sink.Deliver(line, verbose)
	}
}

// EmitMonitor publishes "[<id>] <text>" on the monitor channel.
func (b *Broker) EmitMonitor(id uint64, text string) {
	b.Publish(MonitorChannel, fmt.Sprintf("[%d] %s", id, text))
}
