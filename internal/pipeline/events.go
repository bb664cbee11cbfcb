package pipeline

import "go.uber.org/zap"

// EventKind identifies what an Event carries.
type EventKind string

// Event kinds, in the order a run can produce them.
const (
	EventEmailChunk  EventKind = "email_chunk"
	EventTenderChunk EventKind = "tender_chunk"
	EventInfo        EventKind = "info"
	EventWarning     EventKind = "warning"
	EventError       EventKind = "error"
	EventDone        EventKind = "done"
)

// User-facing messages.
const (
	MsgNoAttachment  = "No attachment found. Email summary above."
	MsgUnsupported   = "Unsupported attachment type: "
	MsgNoText        = "Could not extract valid text from the attachment."
	MsgAttachmentErr = "Error processing attachment: "
	MsgNoEmails      = "No recent emails found or authorized."
)

// Event is one progress notification of a run.
type Event struct {
	Kind EventKind `json:"kind"`
	Text string    `json:"text,omitempty"`
	// Set on EventDone when a table document was produced.
	ReportID     string `json:"report_id,omitempty"`
	DocumentName string `json:"document_name,omitempty"`
	Download     string `json:"download,omitempty"`
}

// Sink receives events as a run progresses. An error returned while a summary is streaming
// aborts that stream.
type Sink interface {
	Emit(ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event) error

// Emit calls f.
func (f SinkFunc) Emit(ev Event) error {
	return f(ev)
}

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(Event) error { return nil })

// notify delivers a status event. Status events are best effort; a failed delivery is logged.
func notify(sink Sink, logger *zap.Logger, ev Event) {
	if err := sink.Emit(ev); err != nil {
		logger.Debug("event not delivered", zap.String("kind", string(ev.Kind)), zap.Error(err))
	}
}
