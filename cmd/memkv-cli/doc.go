// Command memkv-cli talks to a memkv server.
//
// Usage:
//
//	memkv-cli [--server host:port] exec set greeting hello
//	memkv-cli subscribe news
//	memkv-cli --http 127.0.0.1:9180 status -o json
//	memkv-cli              # interactive mode
package main
