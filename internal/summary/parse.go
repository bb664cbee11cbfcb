// Package summary turns a markdown-ish LLM summary into a two-column table and renders it as a
// DOCX or XLSX document.
package summary

import (
	"regexp"
	"strings"
)

// DefaultHeading is used when the summary has no "#" line.
const DefaultHeading = "Table"

var (
	boldLineRe   = regexp.MustCompile(`^\*\*.*\*\*$`)
	numberedRe   = regexp.MustCompile(`^\d+\.`)
	listPrefixRe = regexp.MustCompile(`^[-\d.]+\s*`)
)

// Row is one key with its list items, in order of first appearance.
type Row struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// Description returns the values joined by newlines, as shown in the second column.
func (r Row) Description() string {
	return strings.Join(r.Values, "\n")
}

// Table is the parsed form of a summary.
type Table struct {
	Heading string `json:"heading"`
	Rows    []Row  `json:"rows"`
}

// Parser extracts a Table from summary text. The zero value drops exact-duplicate values
// within a key.
type Parser struct {
	KeepDuplicates bool
}

// Parse parses text with the default Parser.
func Parse(text string) Table {
	return Parser{}.Parse(text)
}

// Parse scans text line by line. A line that is entirely wrapped in "**" starts a new key; list
// lines ("-" or "<n>.") under a key become its values. Everything else is ignored.
func (p Parser) Parse(text string) Table {
	lines := splitLines(text)
	t := Table{Heading: heading(lines), Rows: []Row{}}

	var (
		key    string
		values []string
	)
	flush := func() {
		if key != "" {
			t.Rows = append(t.Rows, Row{Key: key, Values: values})
		}
	}
	for _, raw := range lines {
		line := strings.TrimSpace(strings.TrimLeft(raw, "#"))
		switch {
		case boldLineRe.MatchString(line):
			flush()
			key = strings.TrimSpace(strings.Trim(line, "*"))
			values = []string{}
		case key != "" && isListItem(line):
			v := listPrefixRe.ReplaceAllString(line, "")
			if p.KeepDuplicates || !contains(values, v) {
				values = append(values, v)
			}
		}
	}
	flush()
	return t
}

func heading(lines []string) string {
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if strings.HasPrefix(l, "#") {
			return strings.TrimSpace(strings.TrimLeft(l, "#"))
		}
	}
	return DefaultHeading
}

func isListItem(line string) bool {
	return strings.HasPrefix(line, "-") || numberedRe.MatchString(line)
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
