package services

import "testing"

func TestModelRouter_VisionBeatsRetrieval(t *testing.T) {
	router := NewModelRouter("text-model", "vision-model")

	cls := ClassifyAttachments([]Attachment{
		{Type: "image/png", Data: "aGk="},
	})

	route := router.Decide(cls, true)
	if route.Kind != RouteVision {
		t.Fatalf("vision must win over retrieval, got %s", route.Kind)
	}
	if route.Model != "vision-model" {
		t.Fatalf("expected vision model, got %s", route.Model)
	}
	if route.MaxTokens != 1024 {
		t.Fatalf("vision output cap should be 1024, got %d", route.MaxTokens)
	}
}

func TestModelRouter_URIForcesRetrieval(t *testing.T) {
	router := NewModelRouter("text-model", "vision-model")

	cls := ClassifyAttachments([]Attachment{
		{Type: "application/msword", URI: "https://files.example.com/a.doc"},
	})

	route := router.Decide(cls, false)
	if route.Kind != RouteRetrieval {
		t.Fatalf("legacy uri attachments must force retrieval, got %s", route.Kind)
	}
}

func TestModelRouter_Plain(t *testing.T) {
	router := NewModelRouter("text-model", "vision-model")

	route := router.Decide(AttachmentClassification{}, false)
	if route.Kind != RoutePlain {
		t.Fatalf("expected plain route, got %s", route.Kind)
	}
	if route.Model != "text-model" {
		t.Fatalf("expected text model, got %s", route.Model)
	}
	if route.MaxTokens != 0 {
		t.Fatalf("plain route should leave max tokens to the server default, got %d", route.MaxTokens)
	}
}
