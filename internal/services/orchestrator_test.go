package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/orcha-ai/orcha-backend/internal/clients/llm"
	"github.com/orcha-ai/orcha-backend/internal/clients/ocr"
	"github.com/orcha-ai/orcha-backend/internal/clients/rag"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
	"github.com/orcha-ai/orcha-backend/internal/types"
)

type fakeConversations struct {
	existing *types.Conversation

	createdCount int
	appended     []AppendMessageInput
	history      []*types.ChatMessage
	titleCalls   []string
	touched      int
	nextSeq      int64
}

func (f *fakeConversations) ResolveOrCreate(ctx context.Context, userID uuid.UUID, conversationID *uuid.UUID, tenantID string) (*types.Conversation, bool, error) {
	if f.existing != nil && conversationID != nil && *conversationID == f.existing.ID {
		return f.existing, false, nil
	}
	f.createdCount++
	return &types.Conversation{ID: uuid.New(), UserID: userID, TenantID: tenantID, IsActive: true}, true, nil
}

func (f *fakeConversations) AppendMessage(ctx context.Context, in AppendMessageInput) (*types.ChatMessage, error) {
	f.appended = append(f.appended, in)
	f.nextSeq++
	return &types.ChatMessage{
		ID:             uuid.New(),
		ConversationID: in.ConversationID,
		Seq:            f.nextSeq,
		Role:           in.Role,
		Content:        in.Content,
	}, nil
}

func (f *fakeConversations) HistoryBefore(ctx context.Context, conversationID uuid.UUID, beforeSeq int64) ([]*types.ChatMessage, error) {
	return f.history, nil
}

func (f *fakeConversations) MaybeSetTitle(ctx context.Context, conversationID uuid.UUID, candidate string) error {
	f.titleCalls = append(f.titleCalls, candidate)
	return nil
}

func (f *fakeConversations) Touch(ctx context.Context, conversationID uuid.UUID) error {
	f.touched++
	return nil
}

func (f *fakeConversations) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ConversationSummary, error) {
	return nil, nil
}

func (f *fakeConversations) Detail(ctx context.Context, userID, conversationID uuid.UUID) (*types.Conversation, []*types.ChatMessage, error) {
	return nil, nil, nil
}

func (f *fakeConversations) Rename(ctx context.Context, userID, conversationID uuid.UUID, title string) error {
	return nil
}

func (f *fakeConversations) SoftDelete(ctx context.Context, userID, conversationID uuid.UUID) error {
	return nil
}

func (f *fakeConversations) MoveToFolder(ctx context.Context, userID, conversationID uuid.UUID, folderID *uuid.UUID) error {
	return nil
}

type fakeMemories struct {
	recent      []*types.UserMemory
	extractions []string
}

func (f *fakeMemories) RecentForPrompt(ctx context.Context, userID uuid.UUID) ([]*types.UserMemory, error) {
	return f.recent, nil
}

func (f *fakeMemories) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*types.UserMemory, error) {
	return nil, nil
}

func (f *fakeMemories) Create(ctx context.Context, userID uuid.UUID, title, content string) (*types.UserMemory, error) {
	return nil, nil
}

func (f *fakeMemories) SoftDelete(ctx context.Context, userID, memoryID uuid.UUID) error {
	return nil
}

func (f *fakeMemories) StoreExtraction(ctx context.Context, userID, conversationID uuid.UUID, content string) (*types.UserMemory, error) {
	f.extractions = append(f.extractions, content)
	return &types.UserMemory{ID: uuid.New(), UserID: userID, Content: content}, nil
}

type fakeTokens struct {
	increments []int64
}

func (f *fakeTokens) Increment(ctx context.Context, userID uuid.UUID, tokens int64) TokenUsageInfo {
	f.increments = append(f.increments, tokens)
	var total int64
	for _, n := range f.increments {
		total += n
	}
	return TokenUsageInfo{CurrentUsage: total}
}

func (f *fakeTokens) Get(ctx context.Context, userID uuid.UUID) (TokenUsageInfo, error) {
	return TokenUsageInfo{}, nil
}

func (f *fakeTokens) Reset(ctx context.Context, userID uuid.UUID) error {
	return nil
}

type fakeLLM struct {
	completion llm.Completion
	err        error

	gotModel     string
	gotMaxTokens int
	gotMessages  []llm.Message
}

func (f *fakeLLM) Complete(ctx context.Context, model string, messages []llm.Message, maxTokens int) (llm.Completion, error) {
	f.gotModel = model
	f.gotMaxTokens = maxTokens
	f.gotMessages = messages
	if f.err != nil {
		return llm.Completion{}, f.err
	}
	out := f.completion
	if out.Model == "" {
		out.Model = model
	}
	return out, nil
}

func (f *fakeLLM) ListModels(ctx context.Context) ([]string, error) {
	return []string{f.DefaultModel(), f.VisionModel()}, nil
}

func (f *fakeLLM) DefaultModel() string { return "text-model" }
func (f *fakeLLM) VisionModel() string  { return "vision-model" }

type fakeOCR struct {
	gotURIs []string
}

func (f *fakeOCR) ExtractFromBytes(ctx context.Context, filename string, data []byte, languages []string) (ocr.Result, error) {
	return ocr.Result{}, nil
}

func (f *fakeOCR) ExtractFromURI(ctx context.Context, uri string, languages []string) (ocr.Result, error) {
	f.gotURIs = append(f.gotURIs, uri)
	return ocr.Result{Text: "scanned text", Provider: "fake"}, nil
}

type fakeIngest struct {
	Source   string
	URI      string
	Metadata map[string]any
}

type fakeRAG struct {
	queryResult rag.QueryResult
	queryErr    error

	gotQueries []string
	ingests    []fakeIngest
}

func (f *fakeRAG) Query(ctx context.Context, query string, topK int, rerank bool) (rag.QueryResult, error) {
	f.gotQueries = append(f.gotQueries, query)
	if f.queryErr != nil {
		return rag.QueryResult{}, f.queryErr
	}
	return f.queryResult, nil
}

func (f *fakeRAG) Ingest(ctx context.Context, source, uri string, metadata map[string]any) (rag.IngestResult, error) {
	f.ingests = append(f.ingests, fakeIngest{Source: source, URI: uri, Metadata: metadata})
	return rag.IngestResult{DocID: "doc-1", ChunkCount: 3}, nil
}

type turnFixture struct {
	convs  *fakeConversations
	mems   *fakeMemories
	tokens *fakeTokens
	llm    *fakeLLM
	ocr    *fakeOCR
	rag    *fakeRAG
	orch   Orchestrator
}

func newTurnFixture(t *testing.T) *turnFixture {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	f := &turnFixture{
		convs:  &fakeConversations{},
		mems:   &fakeMemories{},
		tokens: &fakeTokens{},
		llm:    &fakeLLM{completion: llm.Completion{Text: "assistant reply", Usage: llm.Usage{TotalTokens: 42}}},
		ocr:    &fakeOCR{},
		rag:    &fakeRAG{},
	}
	f.orch = NewOrchestrator(log, f.convs, f.mems, f.tokens, f.llm, f.ocr, f.rag, nil, testPersonas())
	return f
}

func TestHandleChatTurn_NewConversation(t *testing.T) {
	f := newTurnFixture(t)

	res, err := f.orch.HandleChatTurn(context.Background(), ChatRequest{
		UserID:  uuid.New(),
		Message: "hello there",
	})
	if err != nil {
		t.Fatalf("HandleChatTurn: %v", err)
	}

	if res.Status != "ok" {
		t.Fatalf("status = %q, want ok", res.Status)
	}
	if res.Message != "assistant reply" {
		t.Fatalf("message = %q", res.Message)
	}
	if f.convs.createdCount != 1 {
		t.Fatalf("expected one conversation created, got %d", f.convs.createdCount)
	}
	if res.ConversationID == uuid.Nil {
		t.Fatalf("result must carry the conversation id")
	}

	if len(f.convs.appended) != 2 {
		t.Fatalf("expected user and assistant rows, got %d", len(f.convs.appended))
	}
	if f.convs.appended[0].Role != types.RoleUser || f.convs.appended[0].Content != "hello there" {
		t.Fatalf("first row must be the user turn, got %+v", f.convs.appended[0])
	}
	assistant := f.convs.appended[1]
	if assistant.Role != types.RoleAssistant || assistant.Content != "assistant reply" {
		t.Fatalf("second row must be the assistant reply, got %+v", assistant)
	}
	if assistant.TokenCount != 42 || assistant.ModelUsed != "text-model" {
		t.Fatalf("assistant row must carry usage and model, got %+v", assistant)
	}

	// Plain route: default text model, no retrieval.
	if f.llm.gotModel != "text-model" {
		t.Fatalf("model = %q, want text-model", f.llm.gotModel)
	}
	if len(f.rag.gotQueries) != 0 {
		t.Fatalf("plain turns must not query retrieval")
	}

	if len(f.convs.titleCalls) != 1 || f.convs.titleCalls[0] != "hello there" {
		t.Fatalf("title must be derived from the first user message, got %v", f.convs.titleCalls)
	}
	if len(f.tokens.increments) != 1 || f.tokens.increments[0] != 42 {
		t.Fatalf("token window must be incremented by usage, got %v", f.tokens.increments)
	}
	if res.TokenUsage.CurrentUsage != 42 {
		t.Fatalf("result usage = %d, want 42", res.TokenUsage.CurrentUsage)
	}
}

func TestHandleChatTurn_ReuseWithHistory(t *testing.T) {
	f := newTurnFixture(t)
	userID := uuid.New()
	f.convs.existing = &types.Conversation{ID: uuid.New(), UserID: userID, IsActive: true}
	f.convs.history = []*types.ChatMessage{
		{Role: types.RoleUser, Content: "earlier question"},
		{Role: types.RoleAssistant, Content: "earlier answer"},
	}

	res, err := f.orch.HandleChatTurn(context.Background(), ChatRequest{
		UserID:         userID,
		ConversationID: &f.convs.existing.ID,
		Message:        "follow-up",
	})
	if err != nil {
		t.Fatalf("HandleChatTurn: %v", err)
	}

	if res.ConversationID != f.convs.existing.ID {
		t.Fatalf("turn must land on the supplied conversation")
	}
	if f.convs.createdCount != 0 {
		t.Fatalf("resolving an existing conversation must not create one")
	}

	// persona, 2 history turns, current message
	if len(f.llm.gotMessages) != 4 {
		t.Fatalf("expected 4 prompt blocks, got %d", len(f.llm.gotMessages))
	}
	if f.llm.gotMessages[1].Content != "earlier question" || f.llm.gotMessages[2].Content != "earlier answer" {
		t.Fatalf("stored history must precede the current turn, got %+v", f.llm.gotMessages)
	}
	if f.llm.gotMessages[3].Content != "follow-up" {
		t.Fatalf("last block must be the current message")
	}
}

func TestHandleChatTurn_InlinePDFStaysPlain(t *testing.T) {
	f := newTurnFixture(t)

	res, err := f.orch.HandleChatTurn(context.Background(), ChatRequest{
		UserID:  uuid.New(),
		Message: "summarize this",
		Attachments: []Attachment{
			{Type: "application/pdf", Data: "JVBERi0xLjQ=", Filename: "doc.pdf"},
		},
	})
	if err != nil {
		t.Fatalf("HandleChatTurn: %v", err)
	}

	if res.Status != "ok" {
		t.Fatalf("status = %q, want ok", res.Status)
	}
	if len(f.rag.gotQueries) != 0 {
		t.Fatalf("inline PDFs must not force the retrieval path")
	}
	if len(f.rag.ingests) != 0 {
		t.Fatalf("inline PDFs must not be ingested")
	}
	if len(f.ocr.gotURIs) != 0 {
		t.Fatalf("inline PDFs must not hit OCR")
	}
	if res.AttachmentsProcessed != 1 {
		t.Fatalf("attachments processed = %d, want 1", res.AttachmentsProcessed)
	}
}

func TestHandleChatTurn_URIForcesRetrieval(t *testing.T) {
	f := newTurnFixture(t)
	f.rag.queryResult = rag.QueryResult{Contexts: []rag.Context{{Source: "kb", Text: "retrieved passage"}}}
	userID := uuid.New()

	res, err := f.orch.HandleChatTurn(context.Background(), ChatRequest{
		UserID:      userID,
		Message:     "what does the scan say?",
		Attachments: []Attachment{{Type: "document", URI: "s3://bucket/scan.tiff"}},
	})
	if err != nil {
		t.Fatalf("HandleChatTurn: %v", err)
	}

	if got := f.ocr.gotURIs; len(got) != 1 || got[0] != "s3://bucket/scan.tiff" {
		t.Fatalf("URI attachment must be OCRed, got %v", got)
	}
	if len(f.rag.ingests) != 1 {
		t.Fatalf("OCRed attachment must be ingested, got %d", len(f.rag.ingests))
	}
	ing := f.rag.ingests[0]
	if ing.URI != "s3://bucket/scan.tiff" {
		t.Fatalf("ingest uri = %q", ing.URI)
	}
	if ing.Source != fmt.Sprintf("attachment_%s", userID) {
		t.Fatalf("ingest source = %q", ing.Source)
	}
	if ing.Metadata["ocr_text"] != "scanned text" {
		t.Fatalf("ingest metadata must carry the OCR text, got %v", ing.Metadata)
	}

	// Legacy URI attachments force retrieval even without the flag.
	if len(f.rag.gotQueries) != 1 || f.rag.gotQueries[0] != "what does the scan say?" {
		t.Fatalf("retrieval must run on the user message, got %v", f.rag.gotQueries)
	}
	if len(res.Contexts) != 1 || res.Contexts[0].Text != "retrieved passage" {
		t.Fatalf("result must include the retrieved contexts, got %+v", res.Contexts)
	}
	if res.IngestedDocuments != 1 {
		t.Fatalf("ingested documents = %d, want 1", res.IngestedDocuments)
	}
}

func TestHandleChatTurn_ModelFailure(t *testing.T) {
	f := newTurnFixture(t)
	f.llm.err = fmt.Errorf("upstream exploded")

	res, err := f.orch.HandleChatTurn(context.Background(), ChatRequest{
		UserID:  uuid.New(),
		Message: "hello",
	})
	if err != nil {
		t.Fatalf("model failure must not surface as an error return: %v", err)
	}

	if res.Status != "error" {
		t.Fatalf("status = %q, want error", res.Status)
	}
	if res.Message != ErrorSentinel {
		t.Fatalf("message = %q, want the sentinel", res.Message)
	}
	if res.Error != "upstream exploded" {
		t.Fatalf("result must expose the cause, got %q", res.Error)
	}
	if res.ConversationID == uuid.Nil {
		t.Fatalf("error result must still carry the conversation id")
	}

	if len(f.convs.appended) != 2 {
		t.Fatalf("expected user row plus sentinel row, got %d", len(f.convs.appended))
	}
	sentinel := f.convs.appended[1]
	if sentinel.Role != types.RoleAssistant || sentinel.Content != ErrorSentinel {
		t.Fatalf("sentinel row malformed: %+v", sentinel)
	}
	if sentinel.ErrorMessage != "upstream exploded" {
		t.Fatalf("real error must be kept on the row, got %q", sentinel.ErrorMessage)
	}
	if len(f.tokens.increments) != 0 {
		t.Fatalf("failed turns must not count tokens")
	}
}

func TestHandleChatTurn_EmptyReplyFallback(t *testing.T) {
	f := newTurnFixture(t)
	f.llm.completion = llm.Completion{Text: "", Usage: llm.Usage{TotalTokens: 5}}

	res, err := f.orch.HandleChatTurn(context.Background(), ChatRequest{
		UserID:  uuid.New(),
		Message: "hello",
	})
	if err != nil {
		t.Fatalf("HandleChatTurn: %v", err)
	}

	if res.Status != "ok" {
		t.Fatalf("empty reply is not a failure, status = %q", res.Status)
	}
	if res.Message != EmptyReplyFallback {
		t.Fatalf("message = %q, want the fallback", res.Message)
	}
	if f.convs.appended[1].Content != EmptyReplyFallback {
		t.Fatalf("stored reply must be the fallback, got %q", f.convs.appended[1].Content)
	}
}

func TestHandleChatTurn_MemoryExtraction(t *testing.T) {
	f := newTurnFixture(t)

	_, err := f.orch.HandleChatTurn(context.Background(), ChatRequest{
		UserID:  uuid.New(),
		Message: MemoryExtractionTrigger + " my job and my city",
	})
	if err != nil {
		t.Fatalf("HandleChatTurn: %v", err)
	}

	if len(f.mems.extractions) != 1 || f.mems.extractions[0] != "assistant reply" {
		t.Fatalf("extraction turn must store the assistant reply, got %v", f.mems.extractions)
	}
	if f.llm.gotMessages[0].Content != defaultUnrestrictedPersona {
		t.Fatalf("extraction turn must use the unrestricted persona")
	}
}

func TestHandleChatTurn_VisionRoute(t *testing.T) {
	f := newTurnFixture(t)

	_, err := f.orch.HandleChatTurn(context.Background(), ChatRequest{
		UserID:      uuid.New(),
		Message:     "what is in this image?",
		Attachments: []Attachment{{Type: "image/png", Data: "AAAA", Filename: "a.png"}},
	})
	if err != nil {
		t.Fatalf("HandleChatTurn: %v", err)
	}

	if f.llm.gotModel != "vision-model" {
		t.Fatalf("model = %q, want vision-model", f.llm.gotModel)
	}
	if f.llm.gotMaxTokens != visionMaxTokens {
		t.Fatalf("max tokens = %d, want %d", f.llm.gotMaxTokens, visionMaxTokens)
	}
}
