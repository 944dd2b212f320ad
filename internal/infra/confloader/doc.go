// Package confloader provides configuration loading mechanism.
//
// This package implements a flexible configuration loader that supports
// multiple sources using koanf as the underlying library.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (LoadMap / WithOverrides)
//  2. Environment variables (MEMKV_SECTION_KEY)
//  3. Configuration file (YAML)
//  4. Default values (pre-filled target struct)
//
// Watcher reports writes to the configuration file so the server can call
// Reload and merge the result into its live configuration.
package confloader
