package services

import "strings"

// Attachment is the inbound attachment descriptor on a chat request.
type Attachment struct {
	Type     string `json:"type,omitempty"`
	Data     string `json:"data,omitempty"` // inline base64 payload
	URI      string `json:"uri,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// AttachmentClassification partitions a request's attachments by handling
// path. The buckets are disjoint; anything matching none of them is counted
// in Skipped rather than treated as an error.
type AttachmentClassification struct {
	Vision  []Attachment
	PDFs    []Attachment
	URIs    []Attachment
	Skipped int
}

func (c AttachmentClassification) HasVision() bool { return len(c.Vision) > 0 }

// ClassifyAttachments is pure: no I/O, fully testable in isolation. An inline
// payload always wins over a URI, even when both are present.
func ClassifyAttachments(attachments []Attachment) AttachmentClassification {
	var out AttachmentClassification
	for _, a := range attachments {
		switch {
		case a.Data != "" && isImageType(a.Type):
			out.Vision = append(out.Vision, a)
		case a.Data != "" && a.Type == "application/pdf":
			out.PDFs = append(out.PDFs, a)
		case a.Data == "" && a.URI != "":
			out.URIs = append(out.URIs, a)
		default:
			out.Skipped++
		}
	}
	return out
}

func isImageType(t string) bool {
	return t == "image" || strings.HasPrefix(t, "image/")
}
