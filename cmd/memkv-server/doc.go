// Package main provides the entry point for memkv-server.
//
// memkv-server is an in-memory key/value server speaking a line-based text
// protocol over TCP, with publish/subscribe channels and a monitor feed.
package main
