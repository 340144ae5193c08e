package services

import "testing"

func TestClassifyAttachments_Partition(t *testing.T) {
	atts := []Attachment{
		{Type: "image/png", Data: "aGk=", Filename: "photo.png"},
		{Type: "application/pdf", Data: "JVBERi0=", Filename: "doc.pdf"},
		{Type: "application/msword", URI: "https://files.example.com/old.doc"},
		{Type: "text/plain"}, // neither payload nor uri
	}

	cls := ClassifyAttachments(atts)

	if len(cls.Vision) != 1 || cls.Vision[0].Filename != "photo.png" {
		t.Fatalf("expected one vision attachment, got %+v", cls.Vision)
	}
	if len(cls.PDFs) != 1 || cls.PDFs[0].Filename != "doc.pdf" {
		t.Fatalf("expected one pdf attachment, got %+v", cls.PDFs)
	}
	if len(cls.URIs) != 1 {
		t.Fatalf("expected one uri attachment, got %+v", cls.URIs)
	}
	if cls.Skipped != 1 {
		t.Fatalf("expected one skipped attachment, got %d", cls.Skipped)
	}

	total := len(cls.Vision) + len(cls.PDFs) + len(cls.URIs) + cls.Skipped
	if total != len(atts) {
		t.Fatalf("classification is not a total partition: %d of %d", total, len(atts))
	}
}

func TestClassifyAttachments_InlinePayloadBeatsURI(t *testing.T) {
	cls := ClassifyAttachments([]Attachment{
		{Type: "image/jpeg", Data: "aGk=", URI: "https://files.example.com/a.jpg"},
		{Type: "application/pdf", Data: "JVBERi0=", URI: "https://files.example.com/b.pdf"},
	})

	if len(cls.Vision) != 1 || len(cls.PDFs) != 1 {
		t.Fatalf("inline payloads should win: %+v", cls)
	}
	if len(cls.URIs) != 0 {
		t.Fatalf("uri bucket should be empty when inline payload present, got %+v", cls.URIs)
	}
}

func TestClassifyAttachments_BareImageType(t *testing.T) {
	cls := ClassifyAttachments([]Attachment{{Type: "image", Data: "aGk="}})
	if len(cls.Vision) != 1 {
		t.Fatalf("bare \"image\" type with payload should classify as vision, got %+v", cls)
	}
}

func TestClassifyAttachments_Empty(t *testing.T) {
	cls := ClassifyAttachments(nil)
	if cls.HasVision() || len(cls.PDFs) != 0 || len(cls.URIs) != 0 || cls.Skipped != 0 {
		t.Fatalf("expected empty classification, got %+v", cls)
	}
}
