package llmservice

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"report-rag/internal/config"
	"report-rag/internal/embedding"
	"report-rag/internal/models"
)

// GenerateContent forwards a message sequence to the configured Azure chat
// deployment with the pipeline's fixed sampling settings. A non-nil
// streamFn switches the call to streaming mode; the full response is still
// returned afterwards.
func GenerateContent(ctx context.Context, azure *config.AzureConfig, messages []llms.MessageContent, streamFn func(ctx context.Context, chunk []byte) error) (*llms.ContentResponse, error) {
	log.Debug().Str("deployment", azure.ChatDeployment).Int("messages", len(messages)).Msg("Generating content")
	llm, err := embedding.NewAzureLLM(azure)
	if err != nil {
		return nil, err
	}

	opts := []llms.CallOption{
		llms.WithTemperature(models.ChatTemperature),
		llms.WithMaxTokens(models.ChatMaxTokens),
	}
	if streamFn != nil {
		opts = append(opts, llms.WithStreamingFunc(streamFn))
	}
	return llm.GenerateContent(ctx, messages, opts...)
}
