package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"report-rag/internal/arabic"
	"report-rag/internal/config"
	"report-rag/internal/llmservice"
	"report-rag/internal/models"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of the accumulating conversation history.
type Message struct {
	Role    string
	Content string
}

// Embedder is the query-embedding surface the assembler needs.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SearchStore is the similarity-search surface the assembler needs.
type SearchStore interface {
	Search(ctx context.Context, vector []float32, k int) ([]models.SearchResult, error)
}

type chatFunc func(ctx context.Context, azure *config.AzureConfig, messages []llms.MessageContent, streamFn func(context.Context, []byte) error) (*llms.ContentResponse, error)

// RAG resolves a user query to a grounded answer: embed the query, search
// the store, assemble cited context and forward the conversation to the
// chat deployment.
type RAG struct {
	store    SearchStore
	embedder Embedder
	cfg      *config.Config
	chat     chatFunc
}

func NewRAG(store SearchStore, embedder Embedder, cfg *config.Config) *RAG {
	return &RAG{store: store, embedder: embedder, cfg: cfg, chat: llmservice.GenerateContent}
}

// GetContext embeds the query, searches the store limited to k and
// concatenates the result texts with synthesized source citations.
// Near-duplicate chunks are not deduplicated.
func (r *RAG) GetContext(ctx context.Context, query string, k int) (string, error) {
	if k <= 0 {
		k = r.cfg.RAG.TopK
	}
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return "", err
	}
	results, err := r.store.Search(ctx, vector, k)
	if err != nil {
		return "", fmt.Errorf("searching store: %w", err)
	}
	return r.buildContext(results), nil
}

// buildContext turns ranked results into the context string. Once the
// character budget is exceeded, the lowest-ranked remainder is dropped
// whole; a block is never truncated mid-chunk and a lower-ranked block is
// never admitted after a higher-ranked one was dropped.
func (r *RAG) buildContext(results []models.SearchResult) string {
	budget := r.cfg.RAG.MaxContextChars
	var blocks []string
	total := 0
	dropped := 0
	for i, res := range results {
		block := res.Text + citation(res.Metadata)
		if len(blocks) > 0 && total+len(block) > budget {
			dropped = len(results) - i
			break
		}
		blocks = append(blocks, block)
		total += len(block) + 2
	}
	if dropped > 0 {
		log.Debug().Int("dropped", dropped).Int("budget", budget).Msg("Context budget exceeded, dropped lowest-ranked chunks")
	}
	return strings.Join(blocks, "\n\n")
}

// citation synthesizes the source line from the non-empty metadata fields,
// joined with " - ", plus a title line when present.
func citation(meta map[string]string) string {
	var parts []string
	if v := meta[models.MetaFilename]; v != "" {
		parts = append(parts, v)
	}
	if v := meta[models.MetaPageNumbers]; v != "" {
		parts = append(parts, "p. "+v)
	}
	if v := meta[models.MetaLanguage]; v != "" {
		parts = append(parts, "Lang: "+v)
	}
	if v := meta[models.MetaChunkQuality]; v != "" {
		parts = append(parts, "Quality: "+v)
	}
	source := "\nSource: " + strings.Join(parts, " - ")
	if v := meta[models.MetaTitle]; v != "" {
		source += "\nTitle: " + v
	}
	return source
}

// BuildSystemPrompt embeds the retrieval context verbatim into the prompt
// template matching the query language.
func BuildSystemPrompt(contextText, language string) string {
	if language == arabic.LanguageArabic {
		return fmt.Sprintf(models.SystemPromptTemplateArabic, contextText)
	}
	return fmt.Sprintf(models.SystemPromptTemplate, contextText)
}

// Respond forwards the history plus a context-bearing system message to
// the chat deployment and returns the complete answer.
func (r *RAG) Respond(ctx context.Context, history []Message, contextText string) (string, error) {
	return r.respond(ctx, history, contextText, nil)
}

// RespondStream is Respond with incremental token rendering through fn.
func (r *RAG) RespondStream(ctx context.Context, history []Message, contextText string, fn func(token string)) (string, error) {
	return r.respond(ctx, history, contextText, func(_ context.Context, chunk []byte) error {
		fn(string(chunk))
		return nil
	})
}

func (r *RAG) respond(ctx context.Context, history []Message, contextText string, streamFn func(context.Context, []byte) error) (string, error) {
	prompt := BuildSystemPrompt(contextText, queryLanguage(history))

	messages := make([]llms.MessageContent, 0, len(history)+1)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, prompt))
	for _, m := range history {
		role := llms.ChatMessageTypeHuman
		if m.Role == RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, m.Content))
	}

	resp, err := r.chat(ctx, &r.cfg.Azure, messages, streamFn)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return resp.Choices[0].Content, nil
}

// Query runs the one-shot path: retrieve context for a single question and
// answer it with no prior history.
func (r *RAG) Query(ctx context.Context, query string, k int) (*models.PromptResponse, error) {
	contextText, err := r.GetContext(ctx, query, k)
	if err != nil {
		return nil, err
	}
	content, err := r.Respond(ctx, []Message{{Role: RoleUser, Content: query}}, contextText)
	if err != nil {
		return nil, err
	}
	return &models.PromptResponse{Query: query, Source: contextText, Content: content}, nil
}

// queryLanguage picks the prompt language from the latest user turn.
func queryLanguage(history []Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			return arabic.Detect(history[i].Content)
		}
	}
	return arabic.LanguageEnglish
}
