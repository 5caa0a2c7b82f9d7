package metrics

import (
	"context"
	"fmt"
	"sync/atomic"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE used when none is configured.
const DefaultEncoding = "cl100k_base"

// TokenCounter estimates token counts for providers that do not report usage.
// Until Load succeeds, and for the zero value, it counts with a
// characters-per-token heuristic.
type TokenCounter struct {
	encoding string
	enc      atomic.Pointer[tiktoken.Tiktoken]
}

// NewTokenCounter builds a counter for the named tiktoken encoding. Call Load
// at startup to switch from the heuristic to the real encoding.
func NewTokenCounter(encoding string) *TokenCounter {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &TokenCounter{encoding: encoding}
}

// Count returns the number of tokens in text.
func (c *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if enc := c.encoder(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return approximateTokens(text)
}

// Usage builds an estimated TokenUsage for a prompt/completion pair.
func (c *TokenCounter) Usage(prompt, completion string) TokenUsage {
	p := c.Count(prompt)
	out := c.Count(completion)
	return TokenUsage{
		PromptTokens:     p,
		CompletionTokens: out,
		TotalTokens:      p + out,
		Estimated:        true,
	}
}

// Load fetches the encoding, waiting at most until ctx is done. A load that
// finishes after ctx expires is still installed.
func (c *TokenCounter) Load(ctx context.Context) error {
	if c == nil || c.encoding == "" {
		return nil
	}
	if c.enc.Load() != nil {
		return nil
	}
	done := make(chan error, 1)
	go func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err == nil {
			c.enc.Store(enc)
		}
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("load %s encoding: %w", c.encoding, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("load %s encoding: %w", c.encoding, ctx.Err())
	}
}

func (c *TokenCounter) encoder() *tiktoken.Tiktoken {
	if c == nil {
		return nil
	}
	return c.enc.Load()
}

// roughly four characters per token for English prose
func approximateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	tokens := (n + 3) / 4
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}
