package reportid

import (
	"strings"
	"testing"
)

func TestForAttachment(t *testing.T) {
	id1 := ForAttachment("18f2a", "tender.pdf")
	id2 := ForAttachment("18f2a", "tender.pdf")
	if id1 != id2 {
		t.Errorf("same message and file should give same ID: %q vs %q", id1, id2)
	}
	if !strings.HasPrefix(id1, mailPrefix) {
		t.Errorf("ID should have prefix %q: got %q", mailPrefix, id1)
	}
	if len(id1) != len(mailPrefix)+32 {
		t.Errorf("unexpected ID length: %q", id1)
	}
}

func TestForAttachment_differentInputs(t *testing.T) {
	base := ForAttachment("18f2a", "tender.pdf")
	if base == ForAttachment("18f2b", "tender.pdf") {
		t.Error("different messages should give different IDs")
	}
	if base == ForAttachment("18f2a", "tender.docx") {
		t.Error("different filenames should give different IDs")
	}
	// The separator keeps ("ab","c") and ("a","bc") apart.
	if ForAttachment("ab", "c") == ForAttachment("a", "bc") {
		t.Error("ambiguous concatenation produced equal IDs")
	}
}

func TestForFile_normalized(t *testing.T) {
	id1 := ForFile("/drop/bar.pdf")
	id2 := ForFile("/drop/./bar.pdf")
	id3 := ForFile("/drop//bar.pdf")
	if id1 != id2 || id1 != id3 {
		t.Errorf("equivalent paths should match: %q %q %q", id1, id2, id3)
	}
	if !strings.HasPrefix(id1, filePrefix) {
		t.Errorf("ID should have prefix %q: got %q", filePrefix, id1)
	}
	if id1 == ForFile("/drop/baz.pdf") {
		t.Error("different paths should give different IDs")
	}
}

func TestForMessage(t *testing.T) {
	id := ForMessage("<CAF=abc@mail.example.com>")
	if !strings.HasPrefix(id, messagePrefix) {
		t.Errorf("ID should have prefix %q: got %q", messagePrefix, id)
	}
	if strings.ContainsAny(id, "<>@=/") {
		t.Errorf("ID should be URL-safe: %q", id)
	}
}

func TestNewUpload(t *testing.T) {
	a, b := NewUpload(), NewUpload()
	if a == b {
		t.Error("upload IDs should be unique")
	}
	if !strings.HasPrefix(a, uploadPrefix) {
		t.Errorf("ID should have prefix %q: got %q", uploadPrefix, a)
	}
}
