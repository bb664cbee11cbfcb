package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

// minimalPDF builds a PDF with one page per entry in pages, each showing its text in Helvetica.
func minimalPDF(pages ...string) []byte {
	var objs []string
	pageCount := len(pages)
	// 1: catalog, 2: pages, 3: font, then (page, contents) pairs.
	kids := make([]string, pageCount)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pageCount),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, text := range pages {
		stream := "BT /F1 12 Tf 72 720 Td (" + text + ") Tj ET"
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

// minimalDocx returns .docx zip bytes whose word/document.xml wraps body in w:document/w:body.
func minimalDocx(body string) []byte {
	return docxWithPath(body, docxDocumentXMLPath, false)
}

func docxWithPath(body, docPath string, withContentTypes bool) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if withContentTypes {
		ct, _ := w.Create(contentTypesPath)
		_, _ = ct.Write([]byte(`<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Override PartName="/` + docPath + `" ContentType="` + docxMainContentType + `"/></Types>`))
	}
	fw, _ := w.Create(docPath)
	_, _ = fw.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="` + wordprocessingNS + `"><w:body>` + body + `</w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func para(text string) string {
	return `<w:p w:rsidR="00AB12CD"><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

func cell(paras ...string) string {
	var b strings.Builder
	b.WriteString("<w:tc><w:tcPr/>")
	for _, p := range paras {
		b.WriteString(para(p))
	}
	b.WriteString("</w:tc>")
	return b.String()
}

func row(cells ...string) string {
	return "<w:tr>" + strings.Join(cells, "") + "</w:tr>"
}

func table(rows ...string) string {
	return "<w:tbl><w:tblPr/>" + strings.Join(rows, "") + "</w:tbl>"
}
