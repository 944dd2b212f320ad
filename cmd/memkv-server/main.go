package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/memkv-go/internal/infra/buildinfo"
	"github.com/yndnr/memkv-go/internal/infra/confloader"
	"github.com/yndnr/memkv-go/internal/infra/shutdown"
	"github.com/yndnr/memkv-go/internal/pubsub"
	"github.com/yndnr/memkv-go/internal/server/config"
	"github.com/yndnr/memkv-go/internal/server/httpserver"
	"github.com/yndnr/memkv-go/internal/server/kvserver"
	"github.com/yndnr/memkv-go/internal/storage/memory"
	"github.com/yndnr/memkv-go/internal/telemetry/logger"
	"github.com/yndnr/memkv-go/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "memkv-server",
		Usage:   "in-memory key/value server",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML configuration file",
				EnvVars: []string{"MEMKV_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "listen address (host:port), overrides server.port",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error, overrides log.level",
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, options{
				configFile: c.String("config"),
				port:       c.String("port"),
				logLevel:   c.String("log-level"),
			})
		},
	}
}

type options struct {
	configFile string
	port       string
	logLevel   string

	// started, when set, receives the command listener address once the
	// server accepts connections.
	started func(addr string)
}

func (o options) overrides() map[string]any {
	m := make(map[string]any)
	if o.port != "" {
		m["server.port"] = o.port
	}
	if o.logLevel != "" {
		m["log.level"] = o.logLevel
	}
	return m
}

func run(ctx context.Context, opts options) error {
	loader := newLoader(opts)
	cfg, err := loadConfig(loader)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  os.Stderr,
		Service: "memkv-server",
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	slogger := log.Slog()

	info := buildinfo.Get()
	log.Info("starting memkv-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", loader.FilePath())

	live := config.NewLive(cfg)
	shutdownHandler := shutdown.NewHandler(shutdownTimeout, slogger)

	// Client log lines: stdout, or the live logfile.
	forwarder := logger.NewForwarder(live, os.Stdout, logger.WithForwarderLogger(slogger))
	forwarder.Start()
	shutdownHandler.OnShutdown("log forwarder", forwarder.Close)

	store := memory.New(
		memory.WithShardCount(cfg.Store.Shards),
		memory.WithSweepInterval(cfg.Store.SweepInterval),
		memory.WithAtomicMoves(cfg.Store.AtomicMoves),
		memory.WithLogger(slogger.With("component", "store")),
	)
	store.Start()
	shutdownHandler.OnShutdown("store", func(context.Context) error {
		return store.Close()
	})

	broker := pubsub.NewBroker(
		pubsub.WithKeepMonitor(cfg.PubSub.KeepMonitor),
		pubsub.WithLogger(slogger.With("component", "pubsub")),
	)
	broker.RegisterLogger(forwarder)

	var reg *metric.Registry
	if cfg.Metrics.Addr != "" {
		reg = metric.NewRegistry()
		reg.MustRegister(metric.NewCollector(store, broker))
	}

	srv := kvserver.New(live, store, broker,
		kvserver.WithLogger(slogger.With("component", "kvserver")),
		kvserver.WithMetrics(reg),
		kvserver.WithAcceptPoll(cfg.Server.AcceptPoll),
	)
	if err := srv.Start(ctx); err != nil {
		_ = shutdownHandler.Shutdown()
		return fmt.Errorf("start server: %w", err)
	}
	shutdownHandler.OnShutdown("kvserver", srv.Shutdown)

	if cfg.Metrics.Addr != "" {
		httpSrv := httpserver.New(cfg.Metrics.Addr, httpserver.NewRouter(&httpserver.RouterConfig{
			Metrics:    reg,
			ListenAddr: srv.ListenAddr,
			Logger:     slogger.With("component", "http"),
		}), slogger)
		if err := httpSrv.Start(); err != nil {
			_ = shutdownHandler.Shutdown()
			return fmt.Errorf("start http endpoint: %w", err)
		}
		shutdownHandler.OnShutdown("http", httpSrv.Shutdown)
	}

	if loader.FilePath() != "" {
		watcher, err := watchConfig(loader, live, slogger)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	if opts.started != nil {
		opts.started(srv.ListenAddr())
	}

	log.Info("server started", "address", srv.ListenAddr())
	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

func newLoader(opts options) *confloader.Loader {
	loaderOpts := []confloader.Option{confloader.WithOverrides(opts.overrides())}
	if opts.configFile != "" {
		loaderOpts = append(loaderOpts, confloader.WithConfigFile(opts.configFile))
	}
	return confloader.NewLoader(loaderOpts...)
}

// loadConfig reads defaults, file, environment and flag overrides, in that
// order of increasing priority.
func loadConfig(loader *confloader.Loader) (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// watchConfig merges file edits into the live config. Invalid edits are
// logged and ignored.
func watchConfig(loader *confloader.Loader, live *config.Live, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(loader.FilePath()); err != nil {
		_ = watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(path string) {
		next := config.Default()
		if err := loader.Reload(next); err != nil {
			log.Warn("config reload failed", "path", path, "error", err)
			return
		}
		if err := config.Verify(next); err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			return
		}
		if err := logger.SetLevel(next.Log.Level); err != nil {
			log.Warn("log level unchanged", "error", err)
		}
		if changed := live.Merge(next); len(changed) > 0 {
			log.Info("config reloaded", "path", path, "changed", changed)
		}
	})
	watcher.StartAsync()
	return watcher, nil
}
