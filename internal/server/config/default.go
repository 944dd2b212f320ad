package config

import (
	"math"
	"time"
)

// Default configuration values.
const (
	DefaultPort       = "127.0.0.1:6380"
	DefaultTimeout    = 0
	DefaultBufferSize = 1024
	DefaultRateLimit  = 0
	DefaultAcceptPoll = 500 * time.Millisecond

	DefaultShards        = 16
	DefaultSweepInterval = time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultDBFilename = "dump.memkv"
)

// MaxTimeout is the largest idle timeout, in seconds, that fits a time.Duration.
const MaxTimeout = int(math.MaxInt64 / int64(time.Second))

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Port:       DefaultPort,
			Timeout:    DefaultTimeout,
			BufferSize: DefaultBufferSize,
			RateLimit:  DefaultRateLimit,
			AcceptPoll: DefaultAcceptPoll,
		},
		Store: StoreSection{
			Shards:        DefaultShards,
			SweepInterval: DefaultSweepInterval,
			AtomicMoves:   false,
		},
		PubSub: PubSubSection{
			KeepMonitor: true,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		DBFilename: DefaultDBFilename,
	}
}
