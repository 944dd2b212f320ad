// Package tests holds end-to-end tests that run a full memkv server and
// drive it with the CLI client packages.
package tests
