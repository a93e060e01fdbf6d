package embedding

import (
	"github.com/tmc/langchaingo/llms/openai"

	"report-rag/internal/config"
)

// Dimension is the vector size of text-embedding-3-large. The store schema
// is fixed to it.
const Dimension = 3072

// NewAzureLLM builds a langchaingo OpenAI client pointed at an Azure
// deployment. The same client serves embeddings (embedding deployment as
// embedding model) and chat completions (chat deployment as model).
func NewAzureLLM(azure *config.AzureConfig) (*openai.LLM, error) {
	opts := []openai.Option{
		openai.WithAPIType(openai.APITypeAzure),
		openai.WithAPIVersion(azure.APIVersion),
		openai.WithBaseURL(azure.Endpoint),
		openai.WithToken(azure.APIKey),
		openai.WithEmbeddingModel(azure.EmbeddingDeployment),
	}
	if azure.ChatDeployment != "" {
		opts = append(opts, openai.WithModel(azure.ChatDeployment))
	}
	return openai.New(opts...)
}
