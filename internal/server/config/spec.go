package config

import "time"

// ServerConfig is the root configuration for memkv-server.
type ServerConfig struct {
	Server     ServerSection  `koanf:"server"`
	Store      StoreSection   `koanf:"store"`
	PubSub     PubSubSection  `koanf:"pubsub"`
	Log        LogSection     `koanf:"log"`
	Metrics    MetricsSection `koanf:"metrics"`
	DBFilename string         `koanf:"dbfilename"`
}

// ServerSection configures the TCP front end.
type ServerSection struct {
	// Port is the listen address (host:port).
	Port string `koanf:"port"`

	// Timeout is the idle read timeout in seconds. 0 disables it.
	Timeout int `koanf:"timeout"`

	// BufferSize bounds a single request read.
	BufferSize int `koanf:"buffer_size"`

	// RateLimit is the per-connection command budget per second.
	// 0 disables rate limiting.
	RateLimit int `koanf:"rate_limit"`

	// AcceptPoll is how long Accept blocks before the loop re-checks
	// the configured port.
	AcceptPoll time.Duration `koanf:"accept_poll"`
}

// StoreSection configures the sharded store.
type StoreSection struct {
	// Shards is the number of independently locked partitions.
	// Must be a power of two.
	Shards int `koanf:"shards"`

	// SweepInterval is the expiry janitor period.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// AtomicMoves makes rename and copy lock both shards at once.
	AtomicMoves bool `koanf:"atomic_moves"`
}

// PubSubSection configures the broker.
type PubSubSection struct {
	// KeepMonitor keeps the monitor channel registered after its last
	// watcher leaves.
	KeepMonitor bool `koanf:"keep_monitor"`
}

// LogSection configures logging.
type LogSection struct {
	Level   string `koanf:"level"`
	Format  string `koanf:"format"`
	Verbose bool   `koanf:"verbose"`
	File    string `koanf:"file"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	// Addr is the HTTP listen address. Empty disables metrics.
	Addr string `koanf:"addr"`
}
