package chatgpt

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateChatCompletionSendsImageParts(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"fish_score\":80}"}}],"usage":{"prompt_tokens":120,"completion_tokens":30,"total_tokens":150}}`))
	}))
	defer server.Close()

	client, err := NewClient("sk-test", server.URL+"/v1/", time.Second)
	require.NoError(t, err)

	resp, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{
		Model:     "gpt-4o-mini",
		MaxTokens: 1024,
		Messages: []Message{
			{Role: "system", Content: "You are an NPC."},
			{Role: "user", Parts: []ContentPart{ImagePart("image/png", []byte("png")), TextPart("Evaluate this fish.")}},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	require.Equal(t, `{"fish_score":80}`, resp.Choices[0].Message.Content)
	require.Equal(t, Usage{PromptTokens: 120, CompletionTokens: 30, TotalTokens: 150}, resp.Usage)

	require.EqualValues(t, 1024, captured["max_tokens"])
	messages := captured["messages"].([]any)
	system := messages[0].(map[string]any)
	require.Equal(t, "You are an NPC.", system["content"])

	parts := messages[1].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	image := parts[0].(map[string]any)
	require.Equal(t, "image_url", image["type"])
	require.Equal(t, "data:image/png;base64,cG5n", image["image_url"].(map[string]any)["url"])
	require.Equal(t, "Evaluate this fish.", parts[1].(map[string]any)["text"])
}

func TestCreateChatCompletionStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewClient("sk-test", server.URL, time.Second)
	require.NoError(t, err)

	_, err = client.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "gpt-4o-mini"})
	require.ErrorContains(t, err, "status=503")
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(" ", "", 0)
	require.Error(t, err)
}
