package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// docxDocumentXMLPath is the default path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// contentTypesPath is the path to [Content_Types].xml in OOXML packages.
const contentTypesPath = "[Content_Types].xml"

// docxMainContentType is the content type for the main document in DOCX files.
const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// partNameRe extracts PartName from Override elements in [Content_Types].xml.
var partNameRe = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)

// partNameRe2 handles the case where ContentType appears before PartName.
var partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)

// findDocxMainDocumentPath finds the main document path from [Content_Types].xml.
// Returns the path without leading slash, or empty string if not found.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	data, err := readZipFile(zr, contentTypesPath)
	if err != nil || data == nil {
		return ""
	}
	content := string(data)
	if matches := partNameRe.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	if matches := partNameRe2.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	return ""
}

// readZipFile returns the contents of the named entry, or nil when it does not exist.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		defer rc.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, nil
}

// extractDOCX returns the body paragraphs joined by "\n", followed by one "\n"-prefixed line
// per top-level table row holding the row's cell texts joined by a single space.
// A cell's text is its own paragraphs joined by "\n"; nested tables are skipped.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}
	docXML, err := readZipFile(zr, docPath)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	if docXML == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", docPath)
	}

	paragraphs, rows, err := walkDocument(docXML)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	var b strings.Builder
	b.WriteString(strings.Join(paragraphs, "\n"))
	for _, row := range rows {
		b.WriteByte('\n')
		b.WriteString(row)
	}
	return b.String(), nil
}

// wordprocessingNS is the WordprocessingML main namespace.
const wordprocessingNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// docWalker collects body paragraphs and table rows from a WordprocessingML token stream.
type docWalker struct {
	tableDepth int
	paraDepth  int
	runDepth   int
	inText     bool
	para       strings.Builder

	paragraphs []string
	rows       []string
	row        []string
	cellParas  []string
}

func walkDocument(docXML []byte) ([]string, []string, error) {
	w := &docWalker{}
	dec := xml.NewDecoder(bytes.NewReader(docXML))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("parse document XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if isWordElement(t.Name) {
				w.start(t)
			}
		case xml.EndElement:
			if isWordElement(t.Name) {
				w.end(t.Name.Local)
			}
		case xml.CharData:
			if w.inText && w.capturing() {
				w.para.Write(t)
			}
		}
	}
	return w.paragraphs, w.rows, nil
}

// isWordElement reports whether name is in the WordprocessingML namespace. Documents without
// namespace declarations leave the raw "w" prefix in Space.
func isWordElement(name xml.Name) bool {
	return name.Space == wordprocessingNS || name.Space == "w"
}

// capturing reports whether runs belong to a body paragraph or a top-level table cell paragraph.
// Paragraphs nested inside another paragraph (text boxes) are not captured.
func (w *docWalker) capturing() bool {
	return w.paraDepth == 1 && w.tableDepth <= 1 && w.runDepth > 0
}

func (w *docWalker) start(el xml.StartElement) {
	switch el.Name.Local {
	case "tbl":
		w.tableDepth++
	case "tr":
		if w.tableDepth == 1 {
			w.row = nil
		}
	case "tc":
		if w.tableDepth == 1 {
			w.cellParas = nil
		}
	case "p":
		w.paraDepth++
		if w.paraDepth == 1 {
			w.para.Reset()
		}
	case "r":
		w.runDepth++
	case "t":
		w.inText = true
	case "tab":
		if w.capturing() {
			w.para.WriteByte('\t')
		}
	case "cr":
		if w.capturing() {
			w.para.WriteByte('\n')
		}
	case "br":
		if w.capturing() && isLineBreak(el) {
			w.para.WriteByte('\n')
		}
	}
}

func (w *docWalker) end(local string) {
	switch local {
	case "tbl":
		w.tableDepth--
	case "tr":
		if w.tableDepth == 1 {
			w.rows = append(w.rows, strings.Join(w.row, " "))
		}
	case "tc":
		if w.tableDepth == 1 {
			w.row = append(w.row, strings.Join(w.cellParas, "\n"))
		}
	case "p":
		if w.paraDepth == 1 {
			switch w.tableDepth {
			case 0:
				w.paragraphs = append(w.paragraphs, w.para.String())
			case 1:
				w.cellParas = append(w.cellParas, w.para.String())
			}
		}
		w.paraDepth--
	case "r":
		w.runDepth--
	case "t":
		w.inText = false
	}
}

// isLineBreak reports whether a w:br is a text-wrapping break; page and column breaks carry no text.
func isLineBreak(el xml.StartElement) bool {
	for _, a := range el.Attr {
		if a.Name.Local == "type" {
			return a.Value == "" || a.Value == "textWrapping"
		}
	}
	return true
}
