// Package cli provides output writers for the tenderlens command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/tenderlens/internal/extract"
	"github.com/hyperjump/tenderlens/internal/models"
	"github.com/hyperjump/tenderlens/internal/pipeline"
	"github.com/hyperjump/tenderlens/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const separator = "─────────────────────────────────────────────────────────"

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	case "":
		return OutputText, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteEmails writes an inbox listing. An empty listing prints the no-emails message in text
// mode and an empty array in JSON mode.
func WriteEmails(w io.Writer, emails []*models.Email, format OutputFormat) error {
	if format == OutputJSON {
		if emails == nil {
			emails = []*models.Email{}
		}
		return writeJSON(w, emails)
	}
	if len(emails) == 0 {
		fmt.Fprintln(w, pipeline.MsgNoEmails)
		return nil
	}
	for _, e := range emails {
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "ID: %s\n", e.ID)
		fmt.Fprintf(w, "From: %s\n", e.Sender)
		fmt.Fprintf(w, "Subject: %s\n", e.Subject)
		if !e.Date.IsZero() {
			fmt.Fprintf(w, "Date: %s\n", e.Date.Format("2006-01-02 15:04"))
		}
		if e.HasAttachment {
			fmt.Fprintln(w, "Attachment: yes")
		}
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(e.Body(), 200))
	}
	return nil
}

// WriteReports writes stored report metadata, one line per report in text mode.
func WriteReports(w io.Writer, reports []*models.Report, format OutputFormat) error {
	if format == OutputJSON {
		if reports == nil {
			reports = []*models.Report{}
		}
		return writeJSON(w, reports)
	}
	if len(reports) == 0 {
		fmt.Fprintln(w, "No reports stored.")
		return nil
	}
	for _, r := range reports {
		subject := r.Subject
		if subject == "" {
			subject = "-"
		}
		fmt.Fprintf(w, "%s  %s  %-30s  rows=%d  %s\n",
			r.UpdatedAt.Format("2006-01-02 15:04"), r.ID, utils.Truncate(r.AttachmentName, 30), r.RowCount, subject)
	}
	return nil
}

// WriteExtractResult writes the outcome of a single extraction.
func WriteExtractResult(w io.Writer, filename string, res *extract.Result, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]interface{}{
			"filename":    filename,
			"ext":         res.Ext,
			"method":      res.Method,
			"unsupported": res.Unsupported,
			"text":        res.Text,
		})
	}
	switch {
	case res.Unsupported:
		fmt.Fprintln(w, pipeline.MsgUnsupported+res.Ext)
	case res.Empty():
		fmt.Fprintln(w, pipeline.MsgNoText)
	default:
		fmt.Fprintf(w, "# %s (%s, %d chars)\n\n%s\n", filename, res.Method, len(res.Text), res.Text)
	}
	return nil
}

// EventPrinter is a pipeline.Sink that renders a run on a terminal: summaries stream as they
// arrive and status events get lines of their own.
type EventPrinter struct {
	w       io.Writer
	current pipeline.EventKind
}

// NewEventPrinter returns a printer writing to w.
func NewEventPrinter(w io.Writer) *EventPrinter {
	return &EventPrinter{w: w}
}

// Emit implements pipeline.Sink.
func (p *EventPrinter) Emit(ev pipeline.Event) error {
	switch ev.Kind {
	case pipeline.EventEmailChunk, pipeline.EventTenderChunk:
		if p.current != ev.Kind {
			p.endStream()
			title := "Email summary"
			if ev.Kind == pipeline.EventTenderChunk {
				title = "Tender summary"
			}
			if _, err := fmt.Fprintf(p.w, "--- %s ---\n", title); err != nil {
				return err
			}
			p.current = ev.Kind
		}
		_, err := io.WriteString(p.w, ev.Text)
		return err
	case pipeline.EventDone:
		p.endStream()
		if ev.DocumentName != "" {
			_, err := fmt.Fprintf(p.w, "Table document: %s\n", ev.DocumentName)
			return err
		}
		return nil
	default:
		p.endStream()
		_, err := fmt.Fprintf(p.w, "[%s] %s\n", strings.ToUpper(string(ev.Kind)), ev.Text)
		return err
	}
}

// endStream terminates a streamed summary with a blank line.
func (p *EventPrinter) endStream() {
	if p.current != "" {
		fmt.Fprint(p.w, "\n\n")
		p.current = ""
	}
}
