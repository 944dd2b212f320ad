// Package pubsub implements the in-process publish/subscribe broker.
//
// Every connection owns one mailbox (a queue.Queue of Message) identified
// by its subscriber id. Subscribing adds the id to a channel's ordered
// subscriber list; publishing pushes onto each mailbox without blocking.
//
// Two broadcast paths sit beside ordinary channels:
//
//   - the monitor channel (MonitorChannel), which receives a tagged trace
//     line for every request and response handled by any connection;
//   - the logger fan-out, a list of LogSink values that receive every
//     trace line together with its verbosity flag.
//
// Id 0 is reserved for the system and is never handed out by NextID.
package pubsub
