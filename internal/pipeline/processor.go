// Package pipeline runs one email through summarization: email body summary, first
// attachment extraction, tender summary, table document and report.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/hyperjump/tenderlens/internal/extract"
	"github.com/hyperjump/tenderlens/internal/inbox"
	"github.com/hyperjump/tenderlens/internal/llm"
	"github.com/hyperjump/tenderlens/internal/models"
	"github.com/hyperjump/tenderlens/internal/prompts"
	"github.com/hyperjump/tenderlens/internal/reportid"
	"github.com/hyperjump/tenderlens/internal/storage"
	"github.com/hyperjump/tenderlens/internal/summary"
	"go.uber.org/zap"
)

// TextExtractor converts attachment bytes to text.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, content []byte) (*extract.Result, error)
}

// Result is the outcome of one run. It replaces any notion of a "last summary": callers keep
// what they need.
type Result struct {
	Email         *models.Email
	EmailSummary  string
	Attachment    string
	ExtractMethod string
	Unsupported   bool
	TenderSummary string
	Table         *summary.Table
	Document      []byte
	DocumentName  string
	ReportID      string
	// AttachmentErr is the error that aborted the attachment phase, already reported to the
	// sink as an error event.
	AttachmentErr error
}

// Combined returns the text the table was built from.
func (r *Result) Combined() string {
	return r.EmailSummary + r.TenderSummary
}

// HasDocument reports whether a table document was produced.
func (r *Result) HasDocument() bool {
	return len(r.Document) > 0
}

// Processor runs emails and files through the pipeline one at a time.
type Processor struct {
	inbox     inbox.Inbox
	extractor TextExtractor
	streamer  llm.Streamer
	store     storage.Storage
	parser    summary.Parser
	logger    *zap.Logger

	mu sync.Mutex
}

// Option configures a Processor.
type Option func(*Processor)

// WithStore saves a report for every produced table document.
func WithStore(s storage.Storage) Option {
	return func(p *Processor) { p.store = s }
}

// WithParser sets the summary parser used to build tables.
func WithParser(parser summary.Parser) Option {
	return func(p *Processor) { p.parser = parser }
}

// WithLogger sets a logger for run-level output.
func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// NewProcessor returns a Processor. ib may be nil when only ProcessFile is used.
func NewProcessor(ib inbox.Inbox, extractor TextExtractor, streamer llm.Streamer, opts ...Option) *Processor {
	p := &Processor{
		inbox:     ib,
		extractor: extractor,
		streamer:  streamer,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// ProcessByID looks up a message and runs it through Process.
func (p *Processor) ProcessByID(ctx context.Context, messageID string, sink Sink) (*Result, error) {
	if p.inbox == nil {
		return nil, fmt.Errorf("no inbox configured")
	}
	email, err := p.inbox.Message(ctx, messageID)
	if err != nil {
		return nil, err
	}
	return p.Process(ctx, email, sink)
}

// Process summarizes the email body, then fetches and summarizes its first attachment.
// Failures of the email summary or of the attachment fetch are returned. Failures inside the
// attachment phase are reported to sink as an error event and recorded in
// Result.AttachmentErr; Process then returns a nil error.
func (p *Processor) Process(ctx context.Context, email *models.Email, sink Sink) (*Result, error) {
	if p.inbox == nil {
		return nil, fmt.Errorf("no inbox configured")
	}
	if sink == nil {
		sink = Discard
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	logger := p.logger.With(zap.String("message_id", email.ID))
	res := &Result{Email: email}

	prompt, err := prompts.Email(email.Body(), email.HasAttachment)
	if err != nil {
		return nil, err
	}
	res.EmailSummary, err = llm.Collect(ctx, p.streamer, prompt, chunkSink(sink, EventEmailChunk))
	if err != nil {
		return nil, fmt.Errorf("email summary: %w", err)
	}
	logger.Debug("email summary complete", zap.Int("chars", len(res.EmailSummary)))

	att, err := p.inbox.FirstAttachment(ctx, email.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch attachment: %w", err)
	}
	if att == nil {
		notify(sink, logger, Event{Kind: EventInfo, Text: MsgNoAttachment})
		notify(sink, logger, Event{Kind: EventDone})
		return res, nil
	}

	report := &models.Report{
		ID:        reportid.ForAttachment(email.ID, att.Filename),
		MessageID: email.ID,
		Subject:   email.Subject,
		Sender:    email.Sender,
	}
	p.processAttachment(ctx, res, att.Filename, att.Data, report, sink, logger)
	return res, nil
}

// ProcessFile runs the attachment phase alone for a local file; there is no email summary.
// Failures are reported the same way as in Process.
func (p *Processor) ProcessFile(ctx context.Context, path string, data []byte, sink Sink) (*Result, error) {
	if sink == nil {
		sink = Discard
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	name := filepath.Base(path)
	logger := p.logger.With(zap.String("file", path))
	res := &Result{}
	report := &models.Report{ID: reportid.ForFile(path)}
	p.processAttachment(ctx, res, name, data, report, sink, logger)
	return res, nil
}

// processAttachment is the outermost scope of the attachment phase: every error raised inside
// it ends up as one error event.
func (p *Processor) processAttachment(ctx context.Context, res *Result, filename string, data []byte, report *models.Report, sink Sink, logger *zap.Logger) {
	res.Attachment = filename
	logger = logger.With(zap.String("attachment", filename))
	if err := p.summarizeAttachment(ctx, res, data, report, sink, logger); err != nil {
		res.AttachmentErr = err
		logger.Warn("attachment processing failed", zap.Error(err))
		notify(sink, logger, Event{Kind: EventError, Text: MsgAttachmentErr + err.Error()})
	}
	done := Event{Kind: EventDone}
	if res.HasDocument() {
		done.ReportID = res.ReportID
		done.DocumentName = res.DocumentName
	}
	notify(sink, logger, done)
}

func (p *Processor) summarizeAttachment(ctx context.Context, res *Result, data []byte, report *models.Report, sink Sink, logger *zap.Logger) error {
	extracted, err := p.extractor.Extract(ctx, res.Attachment, data)
	if err != nil {
		return err
	}
	res.ExtractMethod = extracted.Method
	if extracted.Unsupported {
		res.Unsupported = true
		notify(sink, logger, Event{Kind: EventWarning, Text: MsgUnsupported + extracted.Ext})
	}
	if extracted.Empty() {
		notify(sink, logger, Event{Kind: EventWarning, Text: MsgNoText})
		return nil
	}

	prompt, err := prompts.TenderDocument(extracted.Text)
	if err != nil {
		return err
	}
	res.TenderSummary, err = llm.Collect(ctx, p.streamer, prompt, chunkSink(sink, EventTenderChunk))
	if err != nil {
		return fmt.Errorf("tender summary: %w", err)
	}

	table := p.parser.Parse(res.Combined())
	doc, err := summary.RenderDOCX(table)
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	res.Table = &table
	res.Document = doc
	res.DocumentName = summary.DocumentName(res.Attachment)
	logger.Info("table document ready",
		zap.String("method", res.ExtractMethod),
		zap.String("heading", table.Heading),
		zap.Int("rows", len(table.Rows)),
	)

	if p.store != nil {
		report.AttachmentName = res.Attachment
		report.ExtractMethod = res.ExtractMethod
		report.EmailSummary = res.EmailSummary
		report.TenderSummary = res.TenderSummary
		report.Heading = table.Heading
		report.RowCount = len(table.Rows)
		if err := p.store.SaveReport(ctx, report); err != nil {
			// Best effort: the document is still returned.
			logger.Warn("failed to save report", zap.String("report_id", report.ID), zap.Error(err))
		} else {
			res.ReportID = report.ID
		}
	}
	return nil
}

func chunkSink(sink Sink, kind EventKind) func(string) error {
	return func(chunk string) error {
		return sink.Emit(Event{Kind: kind, Text: chunk})
	}
}
