package sessionauth

import (
	"io"

	"github.com/MrEthical07/sessionauth/internal/audit"
)

// AuditEvent is one audit record. It never carries tokens, fingerprints or
// passwords.
type AuditEvent = audit.Event

// AuditSink receives audit events from the Engine's dispatcher goroutine.
// Sinks that also implement io.Closer are closed by Engine.Close.
type AuditSink = audit.Sink

// NoOpSink drops audit events.
type NoOpSink = audit.NoOpSink

// ChannelSink writes audit events into a buffered channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing JSON lines to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
