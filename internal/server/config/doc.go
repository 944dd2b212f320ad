// Package config provides server configuration for memkv.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation of loaded values
//   - live.go: The mutable key/value view read by connections at runtime
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files, environment variables, and flags. After
// startup the Live map is the only copy the server consults; it is
// changed by "config set" and by file reloads.
package config
