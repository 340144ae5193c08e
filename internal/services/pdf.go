package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF")

// IsValidPDFBase64 reports whether the payload decodes to something that at
// least looks like a PDF.
func IsValidPDFBase64(b64 string) bool {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return false
	}
	return bytes.HasPrefix(raw, pdfMagic)
}

// ExtractPDFText decodes an inline base64 PDF and extracts the text of every
// page, framed with page markers.
func ExtractPDFText(b64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}
	if !bytes.HasPrefix(raw, pdfMagic) {
		return "", fmt.Errorf("failed to extract PDF text: not a PDF file")
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}

	var b strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// One unreadable page should not sink the whole document.
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n--- Page %d ---\n%s", pageNum, pageText)
	}
	return b.String(), nil
}
