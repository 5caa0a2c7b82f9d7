package advisorllm

import (
	"context"
	"errors"
	"strings"

	"github.com/yanqian/fishai-advisor/internal/domain/advisor"
	"github.com/yanqian/fishai-advisor/internal/infra/llm/chatgpt"
	"github.com/yanqian/fishai-advisor/pkg/metrics"
)

// ChatClient is the subset of the ChatGPT client used by the adapter.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// ChatGPTModel adapts the ChatGPT client to the advisor domain.
type ChatGPTModel struct {
	client      ChatClient
	model       string
	temperature float32
	counter     *metrics.TokenCounter
}

// NewChatGPTModel constructs the adapter.
func NewChatGPTModel(client ChatClient, model string, temperature float32, counter *metrics.TokenCounter) *ChatGPTModel {
	return &ChatGPTModel{client: client, model: model, temperature: temperature, counter: counter}
}

// Complete implements advisor.Model.
func (m *ChatGPTModel) Complete(ctx context.Context, prompt advisor.Prompt) (advisor.Completion, error) {
	req := chatgpt.ChatCompletionRequest{
		Model:       m.model,
		Temperature: m.temperature,
		MaxTokens:   prompt.MaxTokens,
		Messages:    make([]chatgpt.Message, 0, len(prompt.Messages)+1),
	}
	if prompt.System != "" {
		req.Messages = append(req.Messages, chatgpt.Message{Role: "system", Content: prompt.System})
	}
	for _, msg := range prompt.Messages {
		out := chatgpt.Message{Role: string(msg.Role), Content: msg.Text}
		if msg.Image != nil {
			out.Parts = []chatgpt.ContentPart{
				chatgpt.ImagePart(msg.Image.MimeType, msg.Image.Data),
				chatgpt.TextPart(msg.Text),
			}
		}
		req.Messages = append(req.Messages, out)
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return advisor.Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return advisor.Completion{}, errors.New("chatgpt returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)

	usage := metrics.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.IsZero() {
		usage = m.counter.Usage(promptText(prompt), text)
	}
	return advisor.Completion{Text: text, Usage: usage}, nil
}

// promptText flattens the textual parts of a prompt for token estimates.
func promptText(prompt advisor.Prompt) string {
	var b strings.Builder
	b.WriteString(prompt.System)
	for _, msg := range prompt.Messages {
		b.WriteString("\n")
		b.WriteString(msg.Text)
	}
	return b.String()
}

var _ advisor.Model = (*ChatGPTModel)(nil)
