package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	calls    [][]string
	failFrom int // fail calls with index >= failFrom; -1 never fails
}

func (f *fakeClient) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	call := len(f.calls)
	f.calls = append(f.calls, texts)
	if f.failFrom >= 0 && call >= f.failFrom {
		return nil, errors.New("embedding endpoint unavailable")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), float32(call)}
	}
	return out, nil
}

func TestEmbedTextsPreservesOrder(t *testing.T) {
	client := &fakeClient{failFrom: -1}
	g := NewGateway(client, 2)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, substituted := g.EmbedTexts(context.Background(), texts)

	require.Len(t, vectors, len(texts))
	assert.Zero(t, substituted)
	for i, text := range texts {
		assert.Equal(t, float32(len(text)), vectors[i][0], "vector %d out of order", i)
	}
}

func TestEmbedTextsBatches(t *testing.T) {
	client := &fakeClient{failFrom: -1}
	g := NewGateway(client, 10)

	texts := make([]string, 25)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}
	vectors, _ := g.EmbedTexts(context.Background(), texts)

	require.Len(t, vectors, 25)
	require.Len(t, client.calls, 3)
	assert.Len(t, client.calls[0], 10)
	assert.Len(t, client.calls[1], 10)
	assert.Len(t, client.calls[2], 5)
}

func TestEmbedTextsSubstitutesZeroVectorsOnFailure(t *testing.T) {
	client := &fakeClient{failFrom: 0}
	g := NewGateway(client, 10)

	texts := []string{"one", "two", "three"}
	vectors, substituted := g.EmbedTexts(context.Background(), texts)

	require.Len(t, vectors, len(texts))
	assert.Equal(t, len(texts), substituted)
	for _, v := range vectors {
		require.Len(t, v, Dimension)
		for _, f := range v {
			assert.Zero(t, f)
		}
	}
}

func TestEmbedTextsFailsOnlyAffectedBatch(t *testing.T) {
	client := &fakeClient{failFrom: 1}
	g := NewGateway(client, 2)

	texts := []string{"aa", "bb", "cc", "dd"}
	vectors, substituted := g.EmbedTexts(context.Background(), texts)

	require.Len(t, vectors, 4)
	assert.Equal(t, 2, substituted)
	// First batch succeeded.
	assert.Equal(t, float32(2), vectors[0][0])
	assert.Equal(t, float32(2), vectors[1][0])
	// Second batch got zero vectors of the full dimensionality.
	require.Len(t, vectors[2], Dimension)
	require.Len(t, vectors[3], Dimension)
}

func TestEmbedTextsCleansBeforeSending(t *testing.T) {
	client := &fakeClient{failFrom: -1}
	g := NewGateway(client, 10)

	g.EmbedTexts(context.Background(), []string{"مـــرحبا   hello"})

	require.Len(t, client.calls, 1)
	assert.Equal(t, "مرحبا hello", client.calls[0][0])
}

func TestEmbedQuery(t *testing.T) {
	client := &fakeClient{failFrom: -1}
	g := NewGateway(client, 10)

	v, err := g.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, float32(5), v[0])
}

func TestEmbedQueryPropagatesError(t *testing.T) {
	client := &fakeClient{failFrom: 0}
	g := NewGateway(client, 10)

	_, err := g.EmbedQuery(context.Background(), "hello")
	assert.Error(t, err)
}
