package services

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/orcha-ai/orcha-backend/internal/clients/llm"
	"github.com/orcha-ai/orcha-backend/internal/clients/rag"
	"github.com/orcha-ai/orcha-backend/internal/pkg/logger"
	"github.com/orcha-ai/orcha-backend/internal/types"
)

// MemoryExtractionTrigger switches the turn to the unrestricted persona.
// Matching is exact-prefix on the trimmed message, never fuzzy.
const MemoryExtractionTrigger = "Based on my recent messages, extract and remember"

const (
	defaultDomainPersona = "You are AURA, an advanced assistant for insurance and finance. " +
		"Provide precise, professional insights on health insurance, FinTech, risk management, " +
		"and compliant financial advice. Refuse general topics and redirect to relevant contexts. " +
		"Stay factual, concise, and analytical."

	defaultUnrestrictedPersona = "You are a helpful AI assistant. Carefully analyze the user's " +
		"conversation history and extract key information they want you to remember. Be thorough " +
		"and accurate in identifying personal details, preferences, and important facts."
)

// Prompt budgets. Characters are the only reliable proxy for tokens here;
// the approximation is 1 token = 4 characters.
const (
	maxRetrievalContexts    = 4
	retrievalContextChars   = 800
	maxMemoriesInPrompt     = 5
	memoryBlockTokenBudget  = 2000
	historyMessagesInPrompt = 10
	charsPerToken           = 4
)

// Personas holds the two system prompts the assembler switches between.
type Personas struct {
	Domain       string `yaml:"domain"`
	Unrestricted string `yaml:"unrestricted"`
}

// LoadPersonas returns the built-in personas, optionally overridden from a
// YAML file named by PERSONA_FILE. A broken override file is logged and
// ignored.
func LoadPersonas(log *logger.Logger) Personas {
	p := Personas{
		Domain:       defaultDomainPersona,
		Unrestricted: defaultUnrestrictedPersona,
	}

	path := strings.TrimSpace(os.Getenv("PERSONA_FILE"))
	if path == "" {
		return p
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("persona file unreadable, using defaults", "path", path, "error", err.Error())
		return p
	}

	var override Personas
	if err := yaml.Unmarshal(raw, &override); err != nil {
		log.Warn("persona file invalid, using defaults", "path", path, "error", err.Error())
		return p
	}
	if strings.TrimSpace(override.Domain) != "" {
		p.Domain = strings.TrimSpace(override.Domain)
	}
	if strings.TrimSpace(override.Unrestricted) != "" {
		p.Unrestricted = strings.TrimSpace(override.Unrestricted)
	}
	log.Info("personas loaded from file", "path", path)
	return p
}

// IsMemoryExtractionRequest reports whether the message begins with the
// extraction trigger phrase.
func IsMemoryExtractionRequest(message string) bool {
	return strings.HasPrefix(strings.TrimSpace(message), MemoryExtractionTrigger)
}

// TruncateToTokens bounds text to maxTokens, keeping the tail. Memory value
// skews toward recency, so unlike log truncation the oldest content is what
// gets dropped. Overflow is marked with a leading "...".
// Budgets count characters, not bytes, so multibyte text is never cut mid-rune.
func TruncateToTokens(text string, maxTokens int) string {
	if text == "" || maxTokens <= 0 {
		return text
	}
	maxChars := maxTokens * charsPerToken
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return "..." + string(runes[len(runes)-maxChars:])
}

// headRunes keeps the first max characters of s.
func headRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// VisionImage is one inline image forwarded to the vision model.
type VisionImage struct {
	Data     string
	MimeType string
	Filename string
}

// AssembleInput carries every context source for one turn. Any of the
// optional slices may be nil; the assembler degrades by omitting the block.
type AssembleInput struct {
	Personas Personas
	Message  string

	Contexts      []rag.Context
	WebSearchText string
	Memories      []*types.UserMemory
	History       []*types.ChatMessage

	DocumentText string
	VisionImages []VisionImage
}

// AssembleContext builds the ordered role-tagged blocks for the model call:
// persona, retrieval sources, web search results, long-term memory,
// conversation history, then the current turn.
func AssembleContext(in AssembleInput) []llm.Message {
	persona := in.Personas.Domain
	if IsMemoryExtractionRequest(in.Message) {
		persona = in.Personas.Unrestricted
	}

	messages := []llm.Message{llm.TextMessage(types.RoleSystem, persona)}

	if len(in.Contexts) > 0 {
		messages = append(messages, llm.TextMessage(types.RoleSystem, FormatRetrievalBlock(in.Contexts)))
	}

	if strings.TrimSpace(in.WebSearchText) != "" {
		messages = append(messages, llm.TextMessage(types.RoleSystem, in.WebSearchText))
	}

	if len(in.Memories) > 0 {
		if block := FormatMemoryBlock(in.Memories); block != "" {
			messages = append(messages, llm.TextMessage(types.RoleSystem, block))
		}
	}

	for _, h := range in.History {
		if h.Role != types.RoleUser && h.Role != types.RoleAssistant {
			continue
		}
		messages = append(messages, llm.TextMessage(h.Role, h.Content))
	}

	messages = append(messages, buildCurrentTurn(in))
	return messages
}

// FormatRetrievalBlock renders the top contexts with per-context truncation.
// Source naming falls back from source to doc id to a positional tag.
func FormatRetrievalBlock(contexts []rag.Context) string {
	var b strings.Builder
	b.WriteString("\n\n=== SOURCES ===\n")
	for i, c := range contexts {
		if i >= maxRetrievalContexts {
			break
		}
		src := c.Source
		if src == "" {
			src = c.DocID
		}
		if src == "" {
			src = fmt.Sprintf("context_%d", i)
		}
		txt := headRunes(c.Text, retrievalContextChars)
		fmt.Fprintf(&b, "[%s] %s\n\n", src, txt)
	}
	return b.String()
}

// FormatMemoryBlock renders up to the 5 most recent active memories, oldest
// first, bounded to the memory token budget with tail-biased truncation.
// Memories are expected newest-first (repo order).
func FormatMemoryBlock(memories []*types.UserMemory) string {
	if len(memories) == 0 {
		return ""
	}
	if len(memories) > maxMemoriesInPrompt {
		memories = memories[:maxMemoriesInPrompt]
	}

	var b strings.Builder
	b.WriteString("Things you remember about this user from previous conversations:\n\n")
	// Oldest first within the block so the most recent facts land at the
	// tail, which is the side truncation keeps.
	for i := len(memories) - 1; i >= 0; i-- {
		m := memories[i]
		title := strings.TrimSpace(m.Title)
		if title == "" {
			title = "memory"
		}
		fmt.Fprintf(&b, "[%s - %s] %s\n\n", title, m.CreatedAt.Format("2006-01-02"), m.Content)
	}
	return TruncateToTokens(strings.TrimRight(b.String(), "\n"), memoryBlockTokenBudget)
}

// BuildDocumentMessage frames extracted document text around the user's
// question.
func BuildDocumentMessage(documentText, message string) string {
	return fmt.Sprintf(
		"The user has attached a document with the following content:\n\n%s\n\nUser's question: %s\n\nPlease answer the user's question based on the document content above.",
		documentText, message,
	)
}

func buildCurrentTurn(in AssembleInput) llm.Message {
	text := in.Message
	if strings.TrimSpace(in.DocumentText) != "" {
		text = BuildDocumentMessage(in.DocumentText, in.Message)
	}

	if len(in.VisionImages) == 0 {
		return llm.TextMessage(types.RoleUser, text)
	}

	parts := []llm.ContentPart{llm.TextPart(text)}
	for _, img := range in.VisionImages {
		parts = append(parts, llm.ImagePart(ImageDataURI(img.Data, img.MimeType)))
	}
	return llm.Message{Role: types.RoleUser, Content: parts}
}

// ImageDataURI normalizes an inline image payload to a data URI. Payloads
// that already carry a data URL prefix are stripped back to raw base64
// first, and the format comes from the MIME subtype (jpeg by default).
func ImageDataURI(data, mimeType string) string {
	if strings.HasPrefix(data, "data:") {
		if idx := strings.Index(data, ","); idx >= 0 {
			data = data[idx+1:]
		}
	}
	format := "jpeg"
	if idx := strings.Index(mimeType, "/"); idx >= 0 && idx+1 < len(mimeType) {
		format = mimeType[idx+1:]
	}
	return fmt.Sprintf("data:image/%s;base64,%s", format, data)
}
