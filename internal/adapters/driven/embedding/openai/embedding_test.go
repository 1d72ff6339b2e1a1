package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestNewDefaultsDimensionsFromKnownModel(t *testing.T) {
	p, err := New(Config{APIKey: "k", Model: "text-embedding-3-large"})
	require.NoError(t, err)
	assert.Equal(t, 3072, p.Dimensions())
}

func TestEmbedBatchReordersByResponseIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		resp := embeddingResponse{
			Data: []struct {
				Embedding []float64 `json:"embedding"`
				Index     int       `json:"index"`
			}{
				{Embedding: []float64{2, 2}, Index: 1},
				{Embedding: []float64{1, 1}, Index: 0},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "secret", BaseURL: server.URL, Dimensions: 2, RequestsPerSecond: 1000})
	require.NoError(t, err)

	vectors, err := p.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 1}, vectors[0])
	assert.Equal(t, []float32{2, 2}, vectors[1])
}

func TestEmbedBatchEmptyInputReturnsNil(t *testing.T) {
	p, err := New(Config{APIKey: "k", Dimensions: 2})
	require.NoError(t, err)

	vectors, err := p.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedBatchSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := embeddingResponse{Error: &struct {
			Message string `json:"message"`
		}{Message: "invalid api key"}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "bad", BaseURL: server.URL, Dimensions: 2, RequestsPerSecond: 1000})
	require.NoError(t, err)

	_, err = p.EmbedBatch(context.Background(), []string{"x"})
	assert.ErrorContains(t, err, "invalid api key")
}

func TestPingSendsAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "secret", BaseURL: server.URL})
	require.NoError(t, err)
	assert.NoError(t, p.Ping(context.Background()))
}
