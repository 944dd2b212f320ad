// Package queue provides an unbounded multi-producer, single-consumer
// queue.
//
// Push never blocks, which lets the pub/sub broker fan a message out to
// every subscriber while holding its registry lock. The consumer blocks in
// Pop until an item arrives, the queue is closed, or its context ends.
package queue
