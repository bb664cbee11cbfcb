package models

import "time"

// Report is the stored outcome of one completed attachment summary run.
// The table document is rendered on demand from Combined().
type Report struct {
	ID             string    `json:"id" db:"id"`
	MessageID      string    `json:"message_id,omitempty" db:"message_id"`
	Subject        string    `json:"subject,omitempty" db:"subject"`
	Sender         string    `json:"from,omitempty" db:"sender"`
	AttachmentName string    `json:"attachment_name" db:"attachment_name"`
	ExtractMethod  string    `json:"extract_method,omitempty" db:"extract_method"`
	EmailSummary   string    `json:"email_summary" db:"email_summary"`
	TenderSummary  string    `json:"tender_summary" db:"tender_summary"`
	Heading        string    `json:"heading" db:"heading"`
	RowCount       int       `json:"row_count" db:"row_count"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Combined returns the text the table document is built from: email summary followed by
// the tender summary, with no separator.
func (r *Report) Combined() string {
	return r.EmailSummary + r.TenderSummary
}
