package models

// Record is a chunk as persisted in the vector store. Records are created
// during ingestion and never mutated afterwards.
type Record struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata map[string]string
}

// SearchResult is a record returned by a similarity search. Rank is implied
// by slice order.
type SearchResult struct {
	Record
	Similarity float32
}

// PromptResponse is the outcome of a one-shot RAG query.
type PromptResponse struct {
	Query   string
	Source  string
	Content string
}
