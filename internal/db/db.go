package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"report-rag/internal/models"
)

// ChunkRow is the pgvector-backed shape of a chunk record. Metadata is
// flattened into columns; page_numbers stays a comma-joined string.
type ChunkRow struct {
	bun.BaseModel `bun:"table:report_chunks,alias:c"`

	ID              string    `bun:"id,pk"`
	Text            string    `bun:"text,notnull"`
	Embedding       []float32 `bun:"embedding,notnull,type:vector(3072)"`
	Filename        string    `bun:"filename,nullzero"`
	PageNumbers     string    `bun:"page_numbers,nullzero"`
	Title           string    `bun:"title,nullzero"`
	Language        string    `bun:"language,nullzero"`
	ArabicCharCount int       `bun:"arabic_char_count,nullzero"`
	ChunkQuality    string    `bun:"chunk_quality,nullzero"`

	Similarity float32 `bun:"similarity,scanonly"`
}

// Store is the Postgres/pgvector alternative to the embedded chromem
// backend, selected by configuring a DSN.
type Store struct {
	db *bun.DB
}

func Connect(dsn string, debug bool) *Store {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	bdb := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		bdb.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &Store{db: bdb}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Reset drops the chunk table if it exists and recreates it.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.NewDropTable().Model((*ChunkRow)(nil)).IfExists().Exec(ctx); err != nil {
		return fmt.Errorf("dropping chunk table: %w", err)
	}
	if _, err := s.db.NewCreateTable().Model((*ChunkRow)(nil)).Exec(ctx); err != nil {
		return fmt.Errorf("creating chunk table: %w", err)
	}
	return nil
}

// Add appends records to the chunk table.
func (s *Store) Add(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]ChunkRow, 0, len(records))
	for _, r := range records {
		count, _ := strconv.Atoi(r.Metadata[models.MetaArabicCharCount])
		rows = append(rows, ChunkRow{
			ID:              r.ID,
			Text:            r.Text,
			Embedding:       r.Vector,
			Filename:        r.Metadata[models.MetaFilename],
			PageNumbers:     r.Metadata[models.MetaPageNumbers],
			Title:           r.Metadata[models.MetaTitle],
			Language:        r.Metadata[models.MetaLanguage],
			ArabicCharCount: count,
			ChunkQuality:    r.Metadata[models.MetaChunkQuality],
		})
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("storing chunk records: %w", err)
	}
	return nil
}

// Search returns up to k records ordered by vector distance to the query
// embedding.
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]models.SearchResult, error) {
	var rows []ChunkRow
	err := s.db.NewSelect().
		Model(&rows).
		ColumnExpr("c.*").
		ColumnExpr("1 - (embedding <=> ?) AS similarity", vector).
		OrderExpr("embedding <-> ?", vector).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("searching chunk records: %w", err)
	}

	out := make([]models.SearchResult, 0, len(rows))
	for _, row := range rows {
		meta := make(map[string]string)
		if row.Filename != "" {
			meta[models.MetaFilename] = row.Filename
		}
		if row.PageNumbers != "" {
			meta[models.MetaPageNumbers] = row.PageNumbers
		}
		if row.Title != "" {
			meta[models.MetaTitle] = row.Title
		}
		if row.Language != "" {
			meta[models.MetaLanguage] = row.Language
		}
		if row.ArabicCharCount > 0 {
			meta[models.MetaArabicCharCount] = strconv.Itoa(row.ArabicCharCount)
		}
		if row.ChunkQuality != "" {
			meta[models.MetaChunkQuality] = row.ChunkQuality
		}
		out = append(out, models.SearchResult{
			Record: models.Record{
				ID:       row.ID,
				Text:     row.Text,
				Vector:   row.Embedding,
				Metadata: meta,
			},
			Similarity: row.Similarity,
		})
	}
	return out, nil
}
