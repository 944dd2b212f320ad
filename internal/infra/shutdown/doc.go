// Package shutdown coordinates graceful process termination.
//
// Components register named hooks as they start; on SIGINT, SIGTERM or
// cancellation of the parent context the hooks run in reverse order of
// registration under a shared timeout.
//
// Usage:
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("kv server", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
