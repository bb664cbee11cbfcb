// Package reportid provides deterministic identifiers for reports and locally sourced messages.
package reportid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	mailPrefix    = "mail-"
	filePrefix    = "file-"
	messagePrefix = "msg-"
	uploadPrefix  = "upload-"
)

// ForAttachment returns the report ID for the attachment of an inbox message.
// Re-processing the same message yields the same ID, so the stored report is replaced.
func ForAttachment(messageID, filename string) string {
	return mailPrefix + digest(messageID+"\x00"+filename)
}

// ForFile returns the report ID for a local file. Paths are cleaned first so equivalent
// spellings of the same path match.
func ForFile(path string) string {
	return filePrefix + digest(filepath.Clean(path))
}

// ForMessage returns a URL-safe ID for a message read from a local mailbox, derived from its
// Message-ID header or any other stable key.
func ForMessage(key string) string {
	return messagePrefix + digest(key)
}

// NewUpload returns a random ID for an ad-hoc upload that has no natural key.
func NewUpload() string {
	return uploadPrefix + uuid.NewString()
}

func digest(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:16])
}
