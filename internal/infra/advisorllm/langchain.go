package advisorllm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/yanqian/fishai-advisor/internal/domain/advisor"
	"github.com/yanqian/fishai-advisor/internal/infra/config"
	"github.com/yanqian/fishai-advisor/pkg/metrics"
)

// LangChainModel adapts a langchaingo model to the advisor domain.
type LangChainModel struct {
	llm         llms.Model
	temperature float64
	counter     *metrics.TokenCounter
}

// NewLangChainModel builds an Anthropic or Ollama backed model.
func NewLangChainModel(cfg config.LLMConfig, counter *metrics.TokenCounter) (*LangChainModel, error) {
	var (
		model llms.Model
		err   error
	)
	switch cfg.Provider {
	case config.ProviderAnthropic:
		opts := []anthropic.Option{
			anthropic.WithToken(cfg.APIKey),
			anthropic.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		model, err = anthropic.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
	case config.ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		model, err = ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported langchain provider: %s", cfg.Provider)
	}
	return NewLangChainModelFrom(model, float64(cfg.Temperature), counter), nil
}

// NewLangChainModelFrom wraps an existing langchaingo model.
func NewLangChainModelFrom(model llms.Model, temperature float64, counter *metrics.TokenCounter) *LangChainModel {
	return &LangChainModel{llm: model, temperature: temperature, counter: counter}
}

// Complete implements advisor.Model.
func (m *LangChainModel) Complete(ctx context.Context, prompt advisor.Prompt) (advisor.Completion, error) {
	messages := make([]llms.MessageContent, 0, len(prompt.Messages)+1)
	if prompt.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, prompt.System))
	}
	for _, msg := range prompt.Messages {
		content := llms.MessageContent{Role: messageType(msg.Role)}
		if msg.Image != nil {
			content.Parts = append(content.Parts, llms.BinaryPart(msg.Image.MimeType, msg.Image.Data))
		}
		content.Parts = append(content.Parts, llms.TextPart(msg.Text))
		messages = append(messages, content)
	}

	opts := []llms.CallOption{llms.WithTemperature(m.temperature)}
	if prompt.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(prompt.MaxTokens))
	}
	resp, err := m.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return advisor.Completion{}, fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return advisor.Completion{}, errors.New("no response choices")
	}
	choice := resp.Choices[0]
	text := strings.TrimSpace(choice.Content)

	usage := usageFromInfo(choice.GenerationInfo)
	if usage.IsZero() {
		usage = m.counter.Usage(promptText(prompt), text)
	}
	return advisor.Completion{Text: text, Usage: usage}, nil
}

func messageType(role advisor.Role) llms.ChatMessageType {
	if role == advisor.RoleAssistant {
		return llms.ChatMessageTypeAI
	}
	return llms.ChatMessageTypeHuman
}

// usageFromInfo reads token counts; providers disagree on key names.
func usageFromInfo(info map[string]any) metrics.TokenUsage {
	usage := metrics.TokenUsage{
		PromptTokens:     intFromInfo(info, "PromptTokens", "InputTokens"),
		CompletionTokens: intFromInfo(info, "CompletionTokens", "OutputTokens"),
		TotalTokens:      intFromInfo(info, "TotalTokens"),
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	return usage
}

func intFromInfo(info map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := info[key].(type) {
		case int:
			return v
		case int32:
			return int(v)
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}

var _ advisor.Model = (*LangChainModel)(nil)
