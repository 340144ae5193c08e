package services

import (
	"encoding/base64"
	"testing"
)

func TestIsValidPDFBase64(t *testing.T) {
	valid := base64.StdEncoding.EncodeToString([]byte("%PDF-1.7 rest of file"))
	if !IsValidPDFBase64(valid) {
		t.Fatalf("payload with the pdf magic should validate")
	}

	notPDF := base64.StdEncoding.EncodeToString([]byte("PK\x03\x04 zip archive"))
	if IsValidPDFBase64(notPDF) {
		t.Fatalf("non-pdf payload must be rejected")
	}

	if IsValidPDFBase64("not base64 at all!!!") {
		t.Fatalf("invalid base64 must be rejected")
	}
	if IsValidPDFBase64("") {
		t.Fatalf("empty payload must be rejected")
	}
}

func TestExtractPDFText_RejectsBadInput(t *testing.T) {
	if _, err := ExtractPDFText("###"); err == nil {
		t.Fatalf("invalid base64 should error")
	}

	bogus := base64.StdEncoding.EncodeToString([]byte("plain text, no magic"))
	if _, err := ExtractPDFText(bogus); err == nil {
		t.Fatalf("missing pdf magic should error")
	}
}
