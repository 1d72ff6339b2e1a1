package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedBatchReturnsVectorsInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		vec := make([]float64, 4)
		for i := range vec {
			vec[i] = float64(len(req.Prompt) + i)
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: vec})
	}))
	defer server.Close()

	p := New(Config{BaseURL: server.URL, Dimensions: 4, RequestsPerSecond: 1000})
	vectors, err := p.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, float32(1), vectors[0][0])
	assert.Equal(t, float32(2), vectors[1][0])
	assert.Equal(t, float32(3), vectors[2][0])
}

func TestEmbedBatchRetriesOnceOnFailure(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{1, 2, 3, 4}})
	}))
	defer server.Close()

	p := New(Config{BaseURL: server.URL, Dimensions: 4, RequestsPerSecond: 1000})
	vectors, err := p.EmbedBatch(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.EqualValues(t, 2, atomic.LoadInt32(&attempts))
}

func TestEmbedBatchRejectsDimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{1, 2}})
	}))
	defer server.Close()

	p := New(Config{BaseURL: server.URL, Dimensions: 4, RequestsPerSecond: 1000})
	_, err := p.EmbedBatch(context.Background(), []string{"a"})
	assert.Error(t, err)
}

func TestPingSucceedsOn200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := New(Config{BaseURL: server.URL})
	assert.NoError(t, p.Ping(context.Background()))
}

func TestProviderIdentity(t *testing.T) {
	p := New(Config{Model: "custom-model", Dimensions: 16})
	assert.Equal(t, "ollama", p.ProviderName())
	assert.Equal(t, "custom-model", p.ModelName())
	assert.Equal(t, 16, p.Dimensions())
}
