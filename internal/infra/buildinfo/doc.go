// Package buildinfo exposes version information for memkv binaries.
//
// Version, Commit and BuildTime are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/memkv-go/internal/infra/buildinfo.Version=v0.3.0"
//
// Values left unset fall back to what the Go toolchain embedded in the
// binary (module version, vcs revision and time).
package buildinfo
