// Package logger provides logging for memkv.
//
//   - logger.go: structured process logging on log/slog (JSON or text)
//   - context.go: context propagation of the logger, connection id and
//     trace id
//   - forwarder.go: the line-oriented command log that receives the
//     broker's logger fan-out and writes it to stdout or a log file
//
// The structured logger records what the server does; the forwarder
// records what clients asked for.
package logger
