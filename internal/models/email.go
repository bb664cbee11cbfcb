// Package models defines core data structures for emails, attachments, and summary reports.
package models

import "time"

// Placeholder values used when a message lacks the corresponding header.
const (
	NoSubject     = "No Subject"
	UnknownSender = "Unknown Sender"
	NoSnippet     = "No snippet available."
)

// Email is one inbox message as listed to the user.
type Email struct {
	ID            string    `json:"id"`
	Subject       string    `json:"subject"`
	Sender        string    `json:"from"`
	Snippet       string    `json:"snippet"`
	HasAttachment bool      `json:"has_attachment"`
	Date          time.Time `json:"date,omitempty"`
}

// Body returns the text summarized for the email: its snippet, or a fixed placeholder when empty.
func (e *Email) Body() string {
	if e.Snippet == "" {
		return NoSnippet
	}
	return e.Snippet
}

// Attachment is the first attachment of a message. It is consumed once by extraction.
type Attachment struct {
	Filename string `json:"filename"`
	Data     []byte `json:"-"`
}

// Size returns the attachment size in bytes.
func (a *Attachment) Size() int {
	return len(a.Data)
}
