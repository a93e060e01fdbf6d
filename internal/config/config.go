package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"report-rag/internal/models"
)

// Environment variables recognized by every entry point.
const (
	EnvAPIKey              = "AZURE_OPENAI_API_KEY"
	EnvEndpoint            = "AZURE_OPENAI_ENDPOINT"
	EnvAPIVersion          = "AZURE_OPENAI_API_VERSION"
	EnvEmbeddingDeployment = "AZURE_OPENAI_EMBEDDING_DEPLOYMENT_NAME"
	EnvChatDeployment      = "AZURE_OPENAI_CHAT_DEPLOYMENT_NAME"
	EnvDebug               = "DEBUG"
	EnvDBPath              = "RAG_DB_PATH"
	EnvPGDSN               = "RAG_PG_DSN"
)

const defaultAPIVersion = "2024-02-15-preview"

// AzureConfig holds the Azure OpenAI connection settings.
type AzureConfig struct {
	APIKey              string `yaml:"api_key"`
	Endpoint            string `yaml:"endpoint"`
	APIVersion          string `yaml:"api_version"`
	EmbeddingDeployment string `yaml:"embedding_deployment"`
	ChatDeployment      string `yaml:"chat_deployment"`
}

// RAGConfig holds the pipeline settings.
type RAGConfig struct {
	MaxTokens       int    `yaml:"max_tokens"`
	BatchSize       int    `yaml:"batch_size"`
	TopK            int    `yaml:"top_k"`
	MaxContextChars int    `yaml:"max_context_chars"`
	DBPath          string `yaml:"db_path"`
	TableName       string `yaml:"table_name"`
	PGDSN           string `yaml:"pg_dsn"`
	Debug           bool   `yaml:"debug"`
}

type Config struct {
	Azure AzureConfig `yaml:"azure"`
	RAG   RAGConfig   `yaml:"rag"`
}

// Load reads the optional YAML file at path, applies defaults and overlays
// environment variables. A missing file is not an error; an empty path
// skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

// Validate reports every missing required setting in a single error so the
// user can fix their setup in one pass. Chat settings are only required for
// the chat-facing entry points.
func (c *Config) Validate(needChat bool) error {
	var missing []string
	if c.Azure.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if c.Azure.Endpoint == "" {
		missing = append(missing, EnvEndpoint)
	}
	if c.Azure.EmbeddingDeployment == "" {
		missing = append(missing, EnvEmbeddingDeployment)
	}
	if needChat && c.Azure.ChatDeployment == "" {
		missing = append(missing, EnvChatDeployment)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Azure: AzureConfig{APIVersion: defaultAPIVersion},
		RAG: RAGConfig{
			MaxTokens:       models.MaxTokens,
			BatchSize:       models.EmbedBatchSize,
			TopK:            models.DefaultTopK,
			MaxContextChars: models.MaxContextChars,
			DBPath:          "data/chromemdb",
			TableName:       "report_chunks",
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Azure.APIVersion == "" {
		cfg.Azure.APIVersion = defaultAPIVersion
	}
	if cfg.RAG.MaxTokens == 0 {
		cfg.RAG.MaxTokens = models.MaxTokens
	}
	if cfg.RAG.BatchSize == 0 {
		cfg.RAG.BatchSize = models.EmbedBatchSize
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = models.DefaultTopK
	}
	if cfg.RAG.MaxContextChars == 0 {
		cfg.RAG.MaxContextChars = models.MaxContextChars
	}
	if cfg.RAG.DBPath == "" {
		cfg.RAG.DBPath = "data/chromemdb"
	}
	if cfg.RAG.TableName == "" {
		cfg.RAG.TableName = "report_chunks"
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.Azure.APIKey = v
	}
	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.Azure.Endpoint = v
	}
	if v := os.Getenv(EnvAPIVersion); v != "" {
		cfg.Azure.APIVersion = v
	}
	if v := os.Getenv(EnvEmbeddingDeployment); v != "" {
		cfg.Azure.EmbeddingDeployment = v
	}
	if v := os.Getenv(EnvChatDeployment); v != "" {
		cfg.Azure.ChatDeployment = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.RAG.DBPath = v
	}
	if v := os.Getenv(EnvPGDSN); v != "" {
		cfg.RAG.PGDSN = v
	}
	if v := os.Getenv(EnvDebug); v != "" && v != "0" && !strings.EqualFold(v, "false") {
		cfg.RAG.Debug = true
	}
}
