package server

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/hyperjump/tenderlens/internal/models"
	"github.com/hyperjump/tenderlens/internal/summary"
	"go.uber.org/zap"
)

var reportPage = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Table.Heading}}</title>
<style>
body { font-family: sans-serif; max-width: 60em; margin: 2em auto; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: .4em; vertical-align: top; text-align: left; }
td { white-space: pre-line; }
</style>
</head>
<body>
<h1>{{.Table.Heading}}</h1>
<p>{{with .Report.Subject}}{{.}} {{end}}{{with .Report.Sender}}({{.}}){{end}}</p>
<p><a href="/api/v1/reports/{{.Report.ID}}/docx">{{.DocumentName}}</a> | <a href="/api/v1/reports/{{.Report.ID}}/xlsx">{{.SpreadsheetName}}</a></p>
<table>
<tr><th>{{index .Header 0}}</th><th>{{index .Header 1}}</th></tr>
{{range .Table.Rows}}<tr><td>{{.Key}}</td><td>{{.Description}}</td></tr>
{{end}}</table>
<h2>Email summary</h2>
{{.EmailHTML}}
<h2>Tender summary</h2>
{{.TenderHTML}}
</body>
</html>
`))

type reportView struct {
	Report          *models.Report
	Table           summary.Table
	Header          [2]string
	DocumentName    string
	SpreadsheetName string
	EmailHTML       template.HTML
	TenderHTML      template.HTML
}

// handleReportView renders a stored report as an HTML page: the parsed table followed by both
// summaries converted from markdown and sanitized.
func (s *Server) handleReportView(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	view := reportView{
		Report:          report,
		Table:           s.parser.Parse(report.Combined()),
		Header:          summary.HeaderRow,
		DocumentName:    summary.DocumentName(report.AttachmentName),
		SpreadsheetName: summary.SpreadsheetName(report.AttachmentName),
	}
	var err error
	if view.EmailHTML, err = s.renderMarkdown(report.EmailSummary); err == nil {
		view.TenderHTML, err = s.renderMarkdown(report.TenderSummary)
	}
	if err != nil {
		s.logger.Error("render markdown failed", zap.String("id", report.ID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := reportPage.Execute(&buf, view); err != nil {
		s.logger.Error("render report page failed", zap.String("id", report.ID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// renderMarkdown converts model output to HTML. Model output is untrusted, so the result always
// passes through the sanitizer.
func (s *Server) renderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(s.sanitizer.SanitizeBytes(buf.Bytes())), nil
}
