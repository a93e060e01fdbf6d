package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"report-rag/internal/arabic"
	"report-rag/internal/chromemdb"
	"report-rag/internal/chunker"
	"report-rag/internal/config"
	"report-rag/internal/db"
	"report-rag/internal/embedding"
	"report-rag/internal/helper"
	"report-rag/internal/models"
	"report-rag/internal/parser"
	"report-rag/internal/rag"
	"report-rag/internal/tui"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	_ = godotenv.Load()

	configPath := flag.String("config", defaultConfigPath, "Path to the YAML config file")
	filePath := flag.String("file", "", "Path to a document file to ingest")
	query := flag.String("query", "", "One-shot question to answer")
	chatMode := flag.Bool("chat", false, "Interactive chat loop")
	tuiMode := flag.Bool("tui", false, "Full-screen chat UI")
	topK := flag.Int("k", 0, "Number of chunks to retrieve")
	dryRun := flag.Bool("dry-run", false, "Parse and chunk only, do not embed or store")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if cfg.RAG.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if *topK <= 0 {
		*topK = cfg.RAG.TopK
	}

	ctx := context.Background()

	switch {
	case *filePath != "":
		if !*dryRun {
			if err := cfg.Validate(false); err != nil {
				log.Fatal().Msgf("Setup error: %v", err)
			}
		}
		if err := ingest(ctx, cfg, *filePath, *dryRun); err != nil {
			log.Fatal().Err(err).Msg("Error ingesting document")
		}
	case *query != "":
		if err := cfg.Validate(true); err != nil {
			log.Fatal().Msgf("Setup error: %v", err)
		}
		answerOnce(ctx, cfg, *query, *topK)
	case *chatMode:
		if err := cfg.Validate(true); err != nil {
			log.Fatal().Msgf("Setup error: %v", err)
		}
		chatLoop(ctx, cfg, *topK)
	case *tuiMode:
		if err := cfg.Validate(true); err != nil {
			log.Fatal().Msgf("Setup error: %v", err)
		}
		runTUI(cfg, *topK)
	default:
		fmt.Println("Usage: report-rag -file report.pdf | -query \"...\" | -chat | -tui")
		os.Exit(1)
	}
}

// vectorStore is the store surface the pipeline uses; both the chromem and
// the postgres backend satisfy it.
type vectorStore interface {
	Reset(ctx context.Context) error
	Add(ctx context.Context, records []models.Record) error
	Search(ctx context.Context, vector []float32, k int) ([]models.SearchResult, error)
}

func newStore(cfg *config.Config) (vectorStore, error) {
	if cfg.RAG.PGDSN != "" {
		return db.Connect(cfg.RAG.PGDSN, cfg.RAG.Debug), nil
	}
	if err := helper.CreateFolder(cfg.RAG.DBPath); err != nil {
		return nil, fmt.Errorf("creating database folder: %w", err)
	}
	return chromemdb.New(cfg.RAG.DBPath, cfg.RAG.TableName, false)
}

func ingest(ctx context.Context, cfg *config.Config, path string, dryRun bool) error {
	doc, err := parser.Parse(path)
	if err != nil {
		return fmt.Errorf("parsing document: %w", err)
	}
	log.Info().Str("file", doc.Filename).Int("items", len(doc.Items)).Msg("Document extracted")

	builder := chunker.NewBuilder(cfg.RAG.MaxTokens, true)
	chunks := builder.Build(doc)
	if len(chunks) == 0 {
		log.Warn().Str("file", doc.Filename).Msg("Document produced no chunks, nothing to store")
		return nil
	}

	arabicChunks := 0
	totalArabicChars := 0
	records := make([]models.Record, 0, len(chunks))
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		charCount := arabic.CountChars(c.Text)
		if charCount > 0 {
			arabicChunks++
			totalArabicChars += charCount
		}

		id, err := helper.NewID()
		if err != nil {
			return err
		}
		meta := map[string]string{
			models.MetaFilename:     doc.Filename,
			models.MetaTitle:        doc.Title,
			models.MetaLanguage:     arabic.Detect(c.Text),
			models.MetaChunkQuality: arabic.Quality(c.Text),
		}
		if pages := chunker.FormatPages(chunker.Pages(c)); pages != "" {
			meta[models.MetaPageNumbers] = pages
		}
		if charCount > 0 {
			meta[models.MetaArabicCharCount] = strconv.Itoa(charCount)
		}
		records = append(records, models.Record{ID: id, Text: c.Text, Metadata: meta})
		texts = append(texts, c.Text)
	}

	log.Info().
		Int("chunks", len(records)).
		Int("arabic_chunks", arabicChunks).
		Int("arabic_chars", totalArabicChars).
		Msg("Chunk analysis")

	if dryRun {
		type chunkSummary struct {
			Chars   int
			Arabic  int
			Quality string
			Pages   string
			Preview string
		}
		summaries := make([]chunkSummary, 0, len(records))
		for _, r := range records {
			preview := r.Text
			if len(preview) > 150 {
				preview = preview[:150]
			}
			summaries = append(summaries, chunkSummary{
				Chars:   len(r.Text),
				Arabic:  arabic.CountChars(r.Text),
				Quality: r.Metadata[models.MetaChunkQuality],
				Pages:   r.Metadata[models.MetaPageNumbers],
				Preview: preview,
			})
		}
		helper.PrettyPrint(summaries)
		return nil
	}

	llm, err := embedding.NewAzureLLM(&cfg.Azure)
	if err != nil {
		return fmt.Errorf("initializing embedder: %w", err)
	}
	gateway := embedding.NewGateway(llm, cfg.RAG.BatchSize)

	vectors, substituted := gateway.EmbedTexts(ctx, texts)
	for i := range records {
		records[i].Vector = vectors[i]
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("resetting vector table: %w", err)
	}
	if err := store.Add(ctx, records); err != nil {
		return fmt.Errorf("storing records: %w", err)
	}

	log.Info().
		Int("stored", len(records)).
		Int("substituted_embeddings", substituted).
		Msg("Ingestion complete")
	return nil
}

func newRAG(cfg *config.Config) (*rag.RAG, error) {
	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	llm, err := embedding.NewAzureLLM(&cfg.Azure)
	if err != nil {
		return nil, fmt.Errorf("initializing embedder: %w", err)
	}
	return rag.NewRAG(store, embedding.NewGateway(llm, cfg.RAG.BatchSize), cfg), nil
}

func answerOnce(ctx context.Context, cfg *config.Config, query string, k int) {
	r, err := newRAG(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing RAG")
	}
	response, err := r.Query(ctx, query, k)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Query)

	log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Source)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Content)
}

var quitWords = map[string]bool{"quit": true, "exit": true, "q": true}

func chatLoop(ctx context.Context, cfg *config.Config, k int) {
	r, err := newRAG(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing RAG")
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		fmt.Println("\nGoodbye!")
		os.Exit(0)
	}()

	fmt.Println("Report Q&A Assistant")
	fmt.Println("Ask questions about the ingested report. Type 'quit' to exit.")

	var history []rag.Message
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYour question: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if quitWords[strings.ToLower(input)] {
			fmt.Println("Goodbye!")
			break
		}

		history = append(history, rag.Message{Role: rag.RoleUser, Content: input})

		contextText, err := r.GetContext(ctx, input, k)
		if err != nil {
			fmt.Printf("Error: %v\nPlease try again or type 'quit' to exit.\n", err)
			history = history[:len(history)-1]
			continue
		}
		printSources(contextText)

		fmt.Println("\nAssistant:")
		content, err := r.RespondStream(ctx, history, contextText, func(token string) {
			fmt.Print(token)
		})
		fmt.Println()
		if err != nil {
			fmt.Printf("Error: %v\nPlease try again or type 'quit' to exit.\n", err)
			history = history[:len(history)-1]
			continue
		}
		history = append(history, rag.Message{Role: rag.RoleAssistant, Content: content})
	}
}

// printSources shows only the citation lines of the retrieved context.
func printSources(contextText string) {
	if contextText == "" {
		fmt.Println("No relevant sections found.")
		return
	}
	fmt.Println("\nRelevant sections:")
	for _, line := range strings.Split(contextText, "\n") {
		if strings.HasPrefix(line, "Source: ") || strings.HasPrefix(line, "Title: ") {
			fmt.Println("  " + line)
		}
	}
}

func runTUI(cfg *config.Config, k int) {
	r, err := newRAG(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing RAG")
	}
	p := tea.NewProgram(tui.New(r, k), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal().Err(err).Msg("Error running TUI")
	}
}
