package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/tenderlens/internal/extract"
	"github.com/hyperjump/tenderlens/internal/inbox"
	"github.com/hyperjump/tenderlens/internal/models"
	"github.com/hyperjump/tenderlens/internal/pipeline"
	"github.com/hyperjump/tenderlens/internal/reportid"
	"github.com/hyperjump/tenderlens/internal/storage"
	"github.com/hyperjump/tenderlens/internal/summary"
	"go.uber.org/zap"
)

const (
	maxUploadBytes   = 32 << 20
	maxMarkdownBytes = 1 << 20
	defaultPageSize  = 20

	reportIDHeader = "X-Report-ID"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reportCount, err := s.storage.CountReports(ctx)
	if err != nil {
		s.logger.Error("status: count reports failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"reports":              reportCount,
		"supported_extensions": extract.SupportedExtensions(),
	}
	if s.config != nil {
		resp["config"] = map[string]interface{}{
			"inbox_provider":    s.config.Inbox.Provider,
			"llm_provider":      s.config.LLM.Provider,
			"llm_model":         s.config.LLM.Model,
			"ocr_language":      s.config.Extract.OCRLanguage,
			"min_digital_chars": s.config.Extract.MinDigitalChars,
			"database_path":     s.config.Storage.DatabasePath,
		}
		diskBytes, err := storage.DatabaseBytes(s.config.Storage.DatabasePath)
		if err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListEmails(w http.ResponseWriter, r *http.Request) {
	if s.inbox == nil {
		s.respondError(w, http.StatusNotImplemented, "inbox not configured")
		return
	}
	limit := 0
	if s.config != nil {
		limit = s.config.Inbox.MaxResults
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	emails, err := s.inbox.ListRecent(r.Context(), limit)
	if err != nil {
		s.logger.Error("list emails failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	resp := map[string]interface{}{"emails": emails}
	if len(emails) == 0 {
		resp["emails"] = []*models.Email{}
		resp["message"] = pipeline.MsgNoEmails
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleSummarizeEmail streams the run as newline-delimited JSON events. Headers are sent with
// the first event, so failures before any output still get a proper status code.
func (s *Server) handleSummarizeEmail(w http.ResponseWriter, r *http.Request) {
	if s.inbox == nil || s.processor == nil {
		s.respondError(w, http.StatusNotImplemented, "inbox not configured")
		return
	}
	id := chi.URLParam(r, "id")
	s.logger.Debug("summarize request", zap.String("message_id", id))

	stream := newEventStream(w)
	sink := pipeline.SinkFunc(func(ev pipeline.Event) error {
		if ev.Kind == pipeline.EventDone && ev.ReportID != "" {
			ev.Download = reportPath(ev.ReportID) + "/docx"
		}
		return stream.write(ev)
	})
	_, err := s.processor.ProcessByID(r.Context(), id, sink)
	if err == nil {
		return
	}
	s.logger.Error("summarize failed", zap.String("message_id", id), zap.Error(err))
	if stream.started {
		_ = stream.write(pipeline.Event{Kind: pipeline.EventError, Text: err.Error()})
		return
	}
	if errors.Is(err, inbox.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "message not found")
		return
	}
	s.respondError(w, http.StatusBadGateway, err.Error())
}

type eventStream struct {
	w       http.ResponseWriter
	enc     *json.Encoder
	started bool
}

func newEventStream(w http.ResponseWriter) *eventStream {
	return &eventStream{w: w, enc: json.NewEncoder(w)}
}

func (e *eventStream) write(ev pipeline.Event) error {
	if !e.started {
		e.w.Header().Set("Content-Type", "application/x-ndjson")
		e.w.Header().Set("Cache-Control", "no-cache")
		e.w.WriteHeader(http.StatusOK)
		e.started = true
	}
	if err := e.enc.Encode(ev); err != nil {
		return err
	}
	if f, ok := e.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	s.logger.Debug("extract request", zap.String("filename", header.Filename), zap.Int("bytes", len(data)))
	res, err := s.extractor.Extract(r.Context(), header.Filename, data)
	if err != nil {
		s.logger.Error("extract failed", zap.String("filename", header.Filename), zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"filename":    header.Filename,
		"ext":         res.Ext,
		"method":      res.Method,
		"unsupported": res.Unsupported,
		"text":        res.Text,
	})
}

// handleTable renders posted markdown as a table document and stores it as an upload report,
// whose location is returned in the Location and X-Report-ID headers.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if !knownTableFormat(format) {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMarkdownBytes))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "summary"
	}

	markdown := string(body)
	table := s.parser.Parse(markdown)
	report := &models.Report{
		ID:             reportid.NewUpload(),
		AttachmentName: name,
		TenderSummary:  markdown,
		Heading:        table.Heading,
		RowCount:       len(table.Rows),
	}
	if err := s.storage.SaveReport(r.Context(), report); err != nil {
		s.logger.Warn("failed to save table report", zap.String("report_id", report.ID), zap.Error(err))
	} else {
		w.Header().Set("Location", reportPath(report.ID))
		w.Header().Set(reportIDHeader, report.ID)
	}
	s.respondTable(w, format, table, name)
}

func knownTableFormat(format string) bool {
	switch format {
	case "", "docx", "xlsx":
		return true
	}
	return false
}

func reportPath(id string) string {
	return "/api/v1/reports/" + id
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	offset, limit := 0, defaultPageSize
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	reports, err := s.storage.ListReports(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list reports failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if reports == nil {
		reports = []*models.Report{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"reports": reports, "offset": offset, "limit": limit})
}

// loadReport fetches the report named by the {id} URL parameter, answering 404 itself.
func (s *Server) loadReport(w http.ResponseWriter, r *http.Request) (*models.Report, bool) {
	id := chi.URLParam(r, "id")
	report, err := s.storage.GetReport(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "report not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("get report failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return report, true
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"report": report,
		"table":  s.parser.Parse(report.Combined()),
	})
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete report request", zap.String("id", id))
	err := s.storage.DeleteReport(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleReportDOCX(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	s.respondTable(w, "docx", s.parser.Parse(report.Combined()), report.AttachmentName)
}

func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	s.respondTable(w, "xlsx", s.parser.Parse(report.Combined()), report.AttachmentName)
}

// respondTable renders t as a download named after attachment.
func (s *Server) respondTable(w http.ResponseWriter, format string, t summary.Table, attachment string) {
	var (
		data        []byte
		err         error
		contentType string
		filename    string
	)
	switch format {
	case "", "docx":
		data, err = summary.RenderDOCX(t)
		contentType, filename = summary.DOCXContentType, summary.DocumentName(attachment)
	case "xlsx":
		data, err = summary.RenderXLSX(t)
		contentType, filename = summary.XLSXContentType, summary.SpreadsheetName(attachment)
	default:
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
		return
	}
	if err != nil {
		s.logger.Error("render table failed", zap.String("format", format), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
