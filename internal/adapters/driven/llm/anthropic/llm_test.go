package anthropic

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

func TestCompleteJoinsTextBlocksAndUsage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		resp := messagesResponse{}
		resp.Content = []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{{Type: "text", Text: "hello "}, {Type: "text", Text: "world"}}
		resp.Usage.InputTokens = 10
		resp.Usage.OutputTokens = 4
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c, err := New(Config{APIKey: "secret", BaseURL: server.URL})
	require.NoError(t, err)

	result, err := c.Complete(context.Background(), driven.CompletionRequest{System: "s", User: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", result.Content)
	assert.Equal(t, 14, result.Usage.TotalTokens)
}

func TestCompleteDefaultsMaxTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, defaultMaxTokens, req.MaxTokens)
		json.NewEncoder(w).Encode(messagesResponse{Content: []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{{Type: "text", Text: "ok"}}})
	}))
	defer server.Close()

	c, err := New(Config{APIKey: "secret", BaseURL: server.URL})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), driven.CompletionRequest{User: "hi"})
	require.NoError(t, err)
}

func TestCompleteStreamParsesNamedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "data: %s\n\n", `{"type":"message_start","message":{"usage":{"input_tokens":7}}}`)
		fmt.Fprintf(w, "data: %s\n\n", `{"type":"content_block_delta","delta":{"type":"text_delta","text":"hi"}}`)
		fmt.Fprintf(w, "data: %s\n\n", `{"type":"message_delta","usage":{"output_tokens":3}}`)
		fmt.Fprintf(w, "data: %s\n\n", `{"type":"message_stop"}`)
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
	assert.Equal(t, 7, finalUsage.PromptTokens)
	assert.Equal(t, 3, finalUsage.CompletionTokens)
	assert.Equal(t, 10, finalUsage.TotalTokens)
}

func TestPingFailsOnUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c, err := New(Config{APIKey: "bad", BaseURL: server.URL})
	require.NoError(t, err)
	assert.Error(t, c.Ping(context.Background()))
}
