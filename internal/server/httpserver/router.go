package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/memkv-go/internal/infra/buildinfo"
	"github.com/yndnr/memkv-go/internal/telemetry/metric"
)

// RouterConfig holds the dependencies of the operational endpoints.
type RouterConfig struct {
	// Metrics backs /metrics. Nil serves 404 there.
	Metrics *metric.Registry

	// ListenAddr reports the command listener address for /ready. An empty
	// result means the server is not accepting yet.
	ListenAddr func() string

	Logger *slog.Logger
}

// NewRouter builds the handler for the operational endpoints.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"version": buildinfo.Get().Version,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, _ *http.Request) {
		addr := ""
		if cfg.ListenAddr != nil {
			addr = cfg.ListenAddr()
		}
		if addr == "" {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "listen": addr})
	})

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	return Chain(mux, RequestID(), Recover(logger), Access(logger))
}
