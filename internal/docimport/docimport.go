// Package docimport turns uploaded documents into idea text.
package docimport

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document types accepted by Extract.
const (
	TypeText = "text"
	TypePDF  = "pdf"
)

const maxPDFSize = 10 << 20

var (
	ErrUnsupportedType = errors.New("unsupported document type")
	ErrTooLarge        = errors.New("document too large")
)

// Extract returns the plain text of a document. For TypePDF, content is the
// base64 encoded file.
func Extract(docType, content string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(docType)) {
	case "", TypeText:
		return content, nil
	case TypePDF:
		raw, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return "", fmt.Errorf("decoding pdf content: %w", err)
		}
		return PDFText(raw)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, docType)
	}
}

// PDFText extracts the plain text of a PDF file.
func PDFText(data []byte) (text string, err error) {
	if len(data) > maxPDFSize {
		return "", ErrTooLarge
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return string(b), nil
}
