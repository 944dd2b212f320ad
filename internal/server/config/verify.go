package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Request read bounds.
const (
	MinBufferSize = 512
	MaxBufferSize = 64 * 1024
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStore(&cfg.Store); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	if cfg.Metrics.Addr != "" {
		if err := verifyAddr(cfg.Metrics.Addr); err != nil {
			return fmt.Errorf("metrics.addr: %w", err)
		}
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if err := verifyAddr(cfg.Port); err != nil {
		return fmt.Errorf("server.port: %w", err)
	}
	if cfg.Timeout < 0 || cfg.Timeout > MaxTimeout {
		return fmt.Errorf("server.timeout must be between 0 and %d", MaxTimeout)
	}
	if cfg.BufferSize < MinBufferSize || cfg.BufferSize > MaxBufferSize {
		return fmt.Errorf("server.buffer_size must be between %d and %d", MinBufferSize, MaxBufferSize)
	}
	if cfg.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	if cfg.AcceptPoll <= 0 {
		return errors.New("server.accept_poll must be positive")
	}
	return nil
}

func verifyStore(cfg *StoreSection) error {
	if cfg.Shards <= 0 || cfg.Shards&(cfg.Shards-1) != 0 {
		return errors.New("store.shards must be a positive power of two")
	}
	if cfg.SweepInterval <= 0 {
		return errors.New("store.sweep_interval must be positive")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q is not json or text", cfg.Format)
	}
	return nil
}

func verifyAddr(addr string) error {
	if addr == "" {
		return errors.New("address is required")
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return err
	}
	return nil
}
