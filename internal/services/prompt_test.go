package services

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/orcha-ai/orcha-backend/internal/clients/llm"
	"github.com/orcha-ai/orcha-backend/internal/clients/rag"
	"github.com/orcha-ai/orcha-backend/internal/types"
)

func testPersonas() Personas {
	return Personas{Domain: defaultDomainPersona, Unrestricted: defaultUnrestrictedPersona}
}

func TestIsMemoryExtractionRequest_ExactPrefix(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{MemoryExtractionTrigger, true},
		{MemoryExtractionTrigger + " my preferences", true},
		{"  " + MemoryExtractionTrigger + " my preferences", true},
		{"Please, " + MemoryExtractionTrigger, false},
		{"based on my recent messages, extract and remember", false}, // case-sensitive
		{"Extract and remember my preferences", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsMemoryExtractionRequest(tc.message); got != tc.want {
			t.Fatalf("IsMemoryExtractionRequest(%q) = %v, want %v", tc.message, got, tc.want)
		}
	}
}

func TestTruncateToTokens(t *testing.T) {
	// Fits: unchanged.
	short := strings.Repeat("a", 4000)
	if got := TruncateToTokens(short, 1000); got != short {
		t.Fatalf("text at exactly the budget should be unchanged")
	}

	// Overflows: marker plus the last budget*4 characters.
	long := strings.Repeat("x", 5000) + strings.Repeat("y", 4000)
	got := TruncateToTokens(long, 1000)
	if !strings.HasPrefix(got, "...") {
		t.Fatalf("truncated text should start with marker, got %q", got[:10])
	}
	if got[3:] != long[len(long)-4000:] {
		t.Fatalf("truncation must keep the tail of the input")
	}
	if len(got) > 4000+3 {
		t.Fatalf("truncated length %d exceeds budget", len(got))
	}

	// Empty passes through.
	if got := TruncateToTokens("", 1000); got != "" {
		t.Fatalf("empty input should stay empty")
	}
}

func TestTruncateToTokens_Multibyte(t *testing.T) {
	// 2000 characters is inside the 4000-char budget even at 3 bytes per rune.
	fits := strings.Repeat("世", 2000)
	if got := TruncateToTokens(fits, 1000); got != fits {
		t.Fatalf("multibyte text within the character budget must pass through")
	}

	long := strings.Repeat("界", 5000)
	got := TruncateToTokens(long, 1000)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation must never split a rune")
	}
	if got != "..."+strings.Repeat("界", 4000) {
		t.Fatalf("truncation must keep the last 4000 characters")
	}
}

func TestAssembleContext_BlockOrder(t *testing.T) {
	memories := []*types.UserMemory{
		{Title: "role", Content: "Works in underwriting", CreatedAt: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)},
	}
	history := []*types.ChatMessage{
		{Role: types.RoleUser, Content: "earlier question"},
		{Role: types.RoleAssistant, Content: "earlier answer"},
		{Role: types.RoleSystem, Content: "must be dropped"},
	}

	msgs := AssembleContext(AssembleInput{
		Personas: testPersonas(),
		Message:  "what about my deductible?",
		Contexts: []rag.Context{{Source: "policy.pdf", Text: "deductible is 500"}},
		Memories: memories,
		History:  history,
	})

	// persona, sources, memory, 2 history turns, current message
	if len(msgs) != 6 {
		t.Fatalf("expected 6 blocks, got %d", len(msgs))
	}
	if msgs[0].Role != types.RoleSystem || msgs[0].Content != defaultDomainPersona {
		t.Fatalf("block 0 must be the domain persona")
	}
	if !strings.Contains(msgs[1].Content.(string), "=== SOURCES ===") {
		t.Fatalf("block 1 must be the retrieval block")
	}
	if !strings.Contains(msgs[2].Content.(string), "Works in underwriting") {
		t.Fatalf("block 2 must be the memory block")
	}
	if msgs[3].Role != types.RoleUser || msgs[4].Role != types.RoleAssistant {
		t.Fatalf("history must be chronological user/assistant pairs")
	}
	if msgs[5].Role != types.RoleUser || msgs[5].Content.(string) != "what about my deductible?" {
		t.Fatalf("last block must be the current user message")
	}
}

func TestAssembleContext_PersonaSwitch(t *testing.T) {
	msgs := AssembleContext(AssembleInput{
		Personas: testPersonas(),
		Message:  MemoryExtractionTrigger + " everything about me",
	})
	if msgs[0].Content != defaultUnrestrictedPersona {
		t.Fatalf("extraction trigger must select the unrestricted persona")
	}

	msgs = AssembleContext(AssembleInput{
		Personas: testPersonas(),
		Message:  "tell me about health insurance",
	})
	if msgs[0].Content != defaultDomainPersona {
		t.Fatalf("ordinary messages must use the domain persona")
	}
}

func TestFormatRetrievalBlock_TopFourAndSourceFallback(t *testing.T) {
	contexts := []rag.Context{
		{Source: "named", Text: "a"},
		{DocID: "doc-42", Text: "b"},
		{Text: strings.Repeat("c", 1000)},
		{Source: "s4", Text: "d"},
		{Source: "dropped", Text: "e"},
	}

	block := FormatRetrievalBlock(contexts)

	if !strings.Contains(block, "[named]") {
		t.Fatalf("source tag missing")
	}
	if !strings.Contains(block, "[doc-42]") {
		t.Fatalf("doc id fallback missing")
	}
	if !strings.Contains(block, "[context_2]") {
		t.Fatalf("positional fallback missing")
	}
	if strings.Contains(block, "dropped") {
		t.Fatalf("only the top 4 contexts may appear")
	}
	if strings.Contains(block, strings.Repeat("c", 801)) {
		t.Fatalf("contexts must be truncated to 800 characters")
	}
}

func TestFormatRetrievalBlock_MultibyteTruncation(t *testing.T) {
	block := FormatRetrievalBlock([]rag.Context{{Source: "s", Text: strings.Repeat("資", 900)}})
	if !utf8.ValidString(block) {
		t.Fatalf("retrieval block must stay valid UTF-8")
	}
	if !strings.Contains(block, strings.Repeat("資", 800)) {
		t.Fatalf("context body missing")
	}
	if strings.Contains(block, strings.Repeat("資", 801)) {
		t.Fatalf("context must be cut at 800 characters, not bytes")
	}
}

func TestFormatMemoryBlock_OldestFirst(t *testing.T) {
	// Repo order: newest first.
	memories := []*types.UserMemory{
		{Title: "newest", Content: "n", CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Title: "oldest", Content: "o", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	block := FormatMemoryBlock(memories)
	oldestIdx := strings.Index(block, "[oldest")
	newestIdx := strings.Index(block, "[newest")
	if oldestIdx < 0 || newestIdx < 0 {
		t.Fatalf("both memories must appear, got %q", block)
	}
	if oldestIdx > newestIdx {
		t.Fatalf("memories must render oldest first within the block")
	}
	if !strings.Contains(block, "2026-01-01") {
		t.Fatalf("memory dates must be annotated, got %q", block)
	}
}

func TestBuildDocumentMessage(t *testing.T) {
	out := BuildDocumentMessage("=== Document: a.pdf ===\nhello\n=== End of a.pdf ===", "what does it say?")
	if !strings.HasPrefix(out, "The user has attached a document with the following content:") {
		t.Fatalf("document framing prefix missing")
	}
	if !strings.Contains(out, "User's question: what does it say?") {
		t.Fatalf("question framing missing")
	}
	if !strings.HasSuffix(out, "Please answer the user's question based on the document content above.") {
		t.Fatalf("instruction suffix missing")
	}
}

func TestAssembleContext_VisionParts(t *testing.T) {
	msgs := AssembleContext(AssembleInput{
		Personas: testPersonas(),
		Message:  "what is in this image?",
		VisionImages: []VisionImage{
			{Data: "data:image/png;base64,AAAA", MimeType: "image/png", Filename: "a.png"},
			{Data: "BBBB", MimeType: "", Filename: "b"},
		},
	})

	last := msgs[len(msgs)-1]
	parts, ok := last.Content.([]llm.ContentPart)
	if !ok {
		t.Fatalf("vision turn must be multi-part, got %T", last.Content)
	}
	if len(parts) != 3 {
		t.Fatalf("expected text part plus 2 image parts, got %d", len(parts))
	}
	if parts[0].Type != "text" || parts[0].Text != "what is in this image?" {
		t.Fatalf("first part must be the message text")
	}
	if parts[1].ImageURL.URL != "data:image/png;base64,AAAA" {
		t.Fatalf("data url prefix must be stripped and rebuilt, got %q", parts[1].ImageURL.URL)
	}
	if parts[2].ImageURL.URL != "data:image/jpeg;base64,BBBB" {
		t.Fatalf("missing mime type must default to jpeg, got %q", parts[2].ImageURL.URL)
	}
}

func TestTitleFromMessage(t *testing.T) {
	if got := TitleFromMessage("short message"); got != "short message" {
		t.Fatalf("short titles pass through, got %q", got)
	}
	long := strings.Repeat("a", 60)
	got := TitleFromMessage(long)
	if got != strings.Repeat("a", 50)+"..." {
		t.Fatalf("long titles truncate to 50 chars plus ellipsis, got %q", got)
	}
}
