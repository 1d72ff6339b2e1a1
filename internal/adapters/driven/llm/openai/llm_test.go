package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragbase-labs/ragbase/internal/core/ports/driven"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestCompleteReturnsFirstChoiceAndUsage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		resp := chatCompletionResponse{}
		resp.Choices = []struct {
			Message      chatMessage `json:"message"`
			FinishReason string      `json:"finish_reason"`
		}{{Message: chatMessage{Role: "assistant", Content: "hi there"}, FinishReason: "stop"}}
		resp.Usage.PromptTokens = 10
		resp.Usage.CompletionTokens = 5
		resp.Usage.TotalTokens = 15
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c, err := New(Config{APIKey: "secret", BaseURL: server.URL})
	require.NoError(t, err)

	result, err := c.Complete(context.Background(), driven.CompletionRequest{User: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hi there", result.Content)
	assert.Equal(t, 15, result.Usage.TotalTokens)
}

func TestCompleteSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatCompletionResponse{Error: &struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		}{Message: "rate limited"}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c, err := New(Config{APIKey: "secret", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), driven.CompletionRequest{User: "hello"})
	assert.ErrorContains(t, err, "rate limited")
}

func TestCompleteStreamParsesSSEDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunk1 := chatCompletionChunk{}
		chunk1.Choices = []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
			FinishReason *string `json:"finish_reason"`
		}{{Delta: struct {
			Content string `json:"content"`
		}{Content: "hi"}}}
		data1, _ := json.Marshal(chunk1)

		chunk2 := chatCompletionChunk{}
		chunk2.Usage = &struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		}{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}
		data2, _ := json.Marshal(chunk2)

		fmt.Fprintf(w, "data: %s\n\n", data1)
		fmt.Fprintf(w, "data: %s\n\n", data2)
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	c, err := New(Config{APIKey: "secret", BaseURL: server.URL})
	require.NoError(t, err)

	var deltas []string
	var finalUsage *driven.Usage
	err = c.CompleteStream(context.Background(), driven.CompletionRequest{User: "hi"}, func(delta string, usage *driven.Usage) error {
		if usage != nil {
			finalUsage = usage
			return nil
		}
		deltas = append(deltas, delta)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"hi"}, deltas)
	require.NotNil(t, finalUsage)
	assert.Equal(t, 3, finalUsage.TotalTokens)
}
