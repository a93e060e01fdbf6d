package chromemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report-rag/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("", "report_chunks", true)
	require.NoError(t, err)
	return s
}

func TestSearchEmptyCollection(t *testing.T) {
	s := newTestStore(t)

	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := []models.Record{
		{
			ID:     "a",
			Text:   "سوق العقار",
			Vector: []float32{1, 0, 0},
			Metadata: map[string]string{
				models.MetaFilename:     "report.pdf",
				models.MetaPageNumbers:  "1, 2",
				models.MetaChunkQuality: "high",
			},
		},
		{
			ID:     "b",
			Text:   "market overview",
			Vector: []float32{0, 1, 0},
			Metadata: map[string]string{
				models.MetaFilename: "report.pdf",
			},
		},
	}
	require.NoError(t, s.Add(ctx, records))

	// Searching with a record's own vector returns that record first.
	results, err := s.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "سوق العقار", results[0].Text)
	assert.Equal(t, "1, 2", results[0].Metadata[models.MetaPageNumbers])
	assert.InDelta(t, 1.0, float64(results[0].Similarity), 0.001)
}

func TestSearchClampsK(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, []models.Record{
		{ID: "only", Text: "t", Vector: []float32{0, 0, 1}},
	}))

	results, err := s.Search(ctx, []float32{0, 0, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestResetDropsRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, []models.Record{
		{ID: "x", Text: "t", Vector: []float32{1, 0, 0}},
	}))
	require.NoError(t, s.Reset(ctx))

	results, err := s.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchRequiresVector(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Search(context.Background(), nil, 5)
	assert.Error(t, err)
}

func TestAddNothing(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Add(context.Background(), nil))
}
