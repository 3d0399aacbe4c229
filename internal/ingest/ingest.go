// Package ingest extracts a plain-text body from pasted text or an
// uploaded email file. Attachments are always discarded.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupportedFormat indicates an upload with a file type the
	// ingestor does not understand.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrParse indicates a recognized container file that could not
	// be parsed.
	ErrParse = errors.New("failed to parse email file")
)

// IngestText is the passthrough for pasted input.
func IngestText(text string) string {
	return text
}

// Ingest extracts the analyzable text from an uploaded file. The
// format is chosen by extension: .eml (MIME), .msg (OLE2 compound
// file), .txt or no extension (plain text).
func Ingest(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".eml":
		return ingestEML(data)
	case ".msg":
		return ingestMSG(data)
	case ".txt", "":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not valid text", ErrUnsupportedFormat, filename)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

// headerBlock renders the extracted envelope above the body so the
// model sees subject and participants alongside the text.
func headerBlock(subject, from, to, date, body string) string {
	var b strings.Builder
	if subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", subject)
	}
	if from != "" {
		fmt.Fprintf(&b, "From: %s\n", from)
	}
	if to != "" {
		fmt.Fprintf(&b, "To: %s\n", to)
	}
	if date != "" {
		fmt.Fprintf(&b, "Date: %s\n", date)
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(body)
	return b.String()
}
