package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/tenderlens/internal/extract"
	"github.com/hyperjump/tenderlens/internal/models"
	"github.com/hyperjump/tenderlens/internal/pipeline"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"json", OutputJSON, false},
		{"compact", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteEmails_text(t *testing.T) {
	emails := []*models.Email{
		{
			ID:            "m1",
			Subject:       "RFP for HMIS",
			Sender:        "tenders@hospital.example",
			Snippet:       "Please find the RFP attached.",
			HasAttachment: true,
			Date:          time.Date(2024, 5, 7, 10, 0, 0, 0, time.UTC),
		},
		{ID: "m2", Subject: "Minutes", Sender: "board@example.org"},
	}
	var buf bytes.Buffer
	if err := WriteEmails(&buf, emails, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"ID: m1", "From: tenders@hospital.example", "Subject: RFP for HMIS",
		"Date: 2024-05-07 10:00", "Attachment: yes", "Please find the RFP attached.", "ID: m2", models.NoSnippet} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
	if strings.Count(out, "Attachment: yes") != 1 {
		t.Errorf("only m1 has an attachment:\n%s", out)
	}
}

func TestWriteEmails_empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEmails(&buf, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != pipeline.MsgNoEmails {
		t.Errorf("got %q", got)
	}

	buf.Reset()
	if err := WriteEmails(&buf, nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("json empty = %q", got)
	}
}

func TestWriteEmails_JSON(t *testing.T) {
	emails := []*models.Email{{ID: "m1", Subject: "RFP", Sender: "a@b", HasAttachment: true}}
	var buf bytes.Buffer
	if err := WriteEmails(&buf, emails, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded []models.Email
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(decoded) != 1 || decoded[0].ID != "m1" || !decoded[0].HasAttachment {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteReports(t *testing.T) {
	reports := []*models.Report{{
		ID:             "mail-abc",
		Subject:        "RFP for HMIS",
		AttachmentName: "rfp.pdf",
		RowCount:       4,
		UpdatedAt:      time.Date(2024, 5, 7, 10, 0, 0, 0, time.UTC),
	}}
	var buf bytes.Buffer
	if err := WriteReports(&buf, reports, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"2024-05-07 10:00", "mail-abc", "rfp.pdf", "rows=4", "RFP for HMIS"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}

	buf.Reset()
	if err := WriteReports(&buf, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No reports stored.") {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestWriteExtractResult(t *testing.T) {
	tests := []struct {
		name string
		res  *extract.Result
		want string
	}{
		{"text", &extract.Result{Text: "Scope of work", Ext: "pdf", Method: extract.MethodPDF}, "Scope of work"},
		{"unsupported", &extract.Result{Ext: "xlsx", Unsupported: true}, "Unsupported attachment type: xlsx"},
		{"empty", &extract.Result{Ext: "pdf", Method: extract.MethodScannedPDF}, pipeline.MsgNoText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteExtractResult(&buf, "f."+tt.res.Ext, tt.res, OutputText); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q missing %q", buf.String(), tt.want)
			}
		})
	}
}

func TestWriteExtractResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	res := &extract.Result{Text: "hello", Ext: "docx", Method: extract.MethodDOCX}
	if err := WriteExtractResult(&buf, "a.docx", res, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["text"] != "hello" || decoded["method"] != "docx" || decoded["unsupported"] != false {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestEventPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewEventPrinter(&buf)
	events := []pipeline.Event{
		{Kind: pipeline.EventEmailChunk, Text: "Hospital "},
		{Kind: pipeline.EventEmailChunk, Text: "RFP."},
		{Kind: pipeline.EventWarning, Text: pipeline.MsgUnsupported + "xlsx"},
		{Kind: pipeline.EventTenderChunk, Text: "**Scope**"},
		{Kind: pipeline.EventDone, DocumentName: "rfp.pdf_summary.docx"},
	}
	for _, ev := range events {
		if err := p.Emit(ev); err != nil {
			t.Fatal(err)
		}
	}
	want := "--- Email summary ---\nHospital RFP.\n\n" +
		"[WARNING] Unsupported attachment type: xlsx\n" +
		"--- Tender summary ---\n**Scope**\n\n" +
		"Table document: rfp.pdf_summary.docx\n"
	if buf.String() != want {
		t.Errorf("got:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestEventPrinter_doneWithoutDocument(t *testing.T) {
	var buf bytes.Buffer
	p := NewEventPrinter(&buf)
	_ = p.Emit(pipeline.Event{Kind: pipeline.EventInfo, Text: pipeline.MsgNoAttachment})
	_ = p.Emit(pipeline.Event{Kind: pipeline.EventDone})
	if got := buf.String(); got != "[INFO] "+pipeline.MsgNoAttachment+"\n" {
		t.Errorf("got %q", got)
	}
}
