package summary

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

// DOCXContentType is the MIME type of rendered table documents.
const DOCXContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// DocumentName returns the download name for the table document of an attachment.
func DocumentName(attachment string) string {
	return attachment + "_summary.docx"
}

const (
	headingStyle = "Heading1"
	headingSize  = 16
	tableStyle   = "TableGrid"
)

// HeaderRow is the first row of every rendered table.
var HeaderRow = [2]string{"Parameter", "Description"}

// RenderDOCX renders t as a .docx: a bold 16pt Heading 1 with the heading, then a two-column
// "Table Grid" table with a Parameter/Description header and one row per key.
func RenderDOCX(t Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDOCX(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDOCX writes the .docx package for t to w.
func WriteDOCX(w io.Writer, t Table) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("create docx: %w", err)
	}

	heading := doc.AddEmptyParagraph()
	heading.Style(headingStyle)
	heading.AddText(t.Heading).Bold(true).Size(headingSize)

	tbl := doc.AddTable()
	tbl.Style(tableStyle)
	addRow(tbl, HeaderRow[0], HeaderRow[1])
	for _, r := range t.Rows {
		addRow(tbl, r.Key, r.Description())
	}

	// Word requires a paragraph after a trailing table.
	doc.AddEmptyParagraph()

	if err := doc.Write(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func addRow(tbl *docx.Table, key, description string) {
	row := tbl.AddRow()
	for _, text := range []string{key, description} {
		addLines(row.AddCell().AddEmptyPara(), text)
	}
}

// addLines writes text into p, one run per line joined by line breaks.
func addLines(p *docx.Paragraph, text string) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		run := p.AddText(line)
		if i < len(lines)-1 {
			run.AddBreak(nil)
		}
	}
}
