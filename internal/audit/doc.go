// Package audit implements async delivery of session audit events.
//
// # Components
//
//   - [Sink] receives events (channel, JSON writer, no-op, or an external
//     adapter such as the Kafka sink).
//   - [Dispatcher] is a buffered relay with drop-if-full or block-if-full
//     semantics.
//
// The flows decide which events to emit; this package only moves them.
package audit
