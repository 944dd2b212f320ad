package config

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/yndnr/memkv-go/internal/core/domain"
)

// Live config keys.
const (
	KeyPort       = "port"
	KeyTimeout    = "timeout"
	KeyVerbose    = "verbose"
	KeyLogFile    = "logfile"
	KeyDBFilename = "dbfilename"
	KeyBufferSize = "buffer_size"
	KeyRateLimit  = "rate_limit"
)

var liveValidators = map[string]func(string) (string, error){
	KeyPort: func(v string) (string, error) {
		return v, verifyAddr(v)
	},
	KeyTimeout:    timeoutSeconds,
	KeyRateLimit:  nonNegativeInt,
	KeyBufferSize: bufferSize,
	KeyVerbose: func(v string) (string, error) {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	},
	KeyLogFile:    anyString,
	KeyDBFilename: anyString,
}

// Live is the runtime key/value configuration shared by every
// connection. Values are stored as text and validated on write.
type Live struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewLive seeds a live map from cfg.
func NewLive(cfg *ServerConfig) *Live {
	return &Live{values: liveValues(cfg)}
}

func liveValues(cfg *ServerConfig) map[string]string {
	return map[string]string{
		KeyPort:       cfg.Server.Port,
		KeyTimeout:    strconv.Itoa(cfg.Server.Timeout),
		KeyVerbose:    strconv.FormatBool(cfg.Log.Verbose),
		KeyLogFile:    cfg.Log.File,
		KeyDBFilename: cfg.DBFilename,
		KeyBufferSize: strconv.Itoa(cfg.Server.BufferSize),
		KeyRateLimit:  strconv.Itoa(cfg.Server.RateLimit),
	}
}

// Get returns the value stored under key.
func (l *Live) Get(key string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.values[key]
	if !ok {
		return "", domain.ErrConfigKeyNotFound.WithDetails(key)
	}
	return v, nil
}

// Set validates and stores value under key.
func (l *Live) Set(key, value string) error {
	validate, ok := liveValidators[key]
	if !ok {
		return domain.ErrConfigKeyNotFound.WithDetails(key)
	}
	norm, err := validate(value)
	if err != nil {
		return domain.ErrInvalidArgument.WithDetails(key).WithCause(err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.values[key] = norm
	return nil
}

// Merge overwrites the live values with those of cfg and returns the keys
// whose value changed, sorted.
func (l *Live) Merge(cfg *ServerConfig) []string {
	next := liveValues(cfg)

	l.mu.Lock()
	defer l.mu.Unlock()

	var changed []string
	for k, v := range next {
		if l.values[k] != v {
			l.values[k] = v
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

// Keys returns the sorted list of live keys.
func (l *Live) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.values))
	for k := range l.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Port returns the configured listen address.
func (l *Live) Port() string {
	v, _ := l.Get(KeyPort)
	return v
}

// Timeout returns the idle read timeout. Zero means none.
func (l *Live) Timeout() time.Duration {
	return time.Duration(l.intValue(KeyTimeout)) * time.Second
}

// Verbose reports whether verbose log lines are written.
func (l *Live) Verbose() bool {
	v, _ := l.Get(KeyVerbose)
	b, _ := strconv.ParseBool(v)
	return b
}

// LogFile returns the log file path, or "" for the default output.
func (l *Live) LogFile() string {
	v, _ := l.Get(KeyLogFile)
	return v
}

// BufferSize returns the request read limit.
func (l *Live) BufferSize() int {
	if n := l.intValue(KeyBufferSize); n > 0 {
		return n
	}
	return DefaultBufferSize
}

// RateLimit returns the per-connection command budget per second.
func (l *Live) RateLimit() int {
	return l.intValue(KeyRateLimit)
}

func (l *Live) intValue(key string) int {
	v, _ := l.Get(key)
	n, _ := strconv.Atoi(v)
	return n
}

func nonNegativeInt(v string) (string, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", strconv.ErrRange
	}
	return strconv.Itoa(n), nil
}

func timeoutSeconds(v string) (string, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return "", err
	}
	if n < 0 || n > MaxTimeout {
		return "", strconv.ErrRange
	}
	return strconv.Itoa(n), nil
}

func bufferSize(v string) (string, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return "", err
	}
	if n < MinBufferSize || n > MaxBufferSize {
		return "", strconv.ErrRange
	}
	return strconv.Itoa(n), nil
}

func anyString(v string) (string, error) {
	return v, nil
}
