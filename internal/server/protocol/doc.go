// Package protocol implements the plain-text memkv wire format.
//
// A request is one read of at most the configured buffer size, split on
// whitespace. The first token selects the command; Parse checks it
// against the command table and its argument count before anything runs.
//
// Responses are newline terminated:
//
//	OK
//	bar
//	(integer) 6
//	1) alpha
//	2) beta
//	(empty list or set)
//	Error: no such key
//
// Messages pushed to subscribers are written as "message <channel>
// <payload>" and monitor traces as "monitor <line>".
package protocol
