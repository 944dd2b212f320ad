// Package kvserver serves the memkv text protocol over TCP.
//
// The accept loop polls with a deadline so it can notice when the live
// "port" setting changes; it then binds the new address before releasing
// the old one. Each accepted socket is served by one goroutine running a
// read, dispatch, respond cycle, plus one push goroutine once the
// connection subscribes to anything.
package kvserver
