package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZeroCounterFallsBackToHeuristic(t *testing.T) {
	var counter TokenCounter

	require.Equal(t, 0, counter.Count(""))
	require.Equal(t, 1, counter.Count("hi"))
	require.Equal(t, 3, counter.Count("twelve chars"))

	usage := counter.Usage("twelve chars", "hi")
	require.Equal(t, 3, usage.PromptTokens)
	require.Equal(t, 1, usage.CompletionTokens)
	require.Equal(t, 4, usage.TotalTokens)
	require.True(t, usage.Estimated)
	require.False(t, usage.IsZero())
}

func TestUnloadedCounterNeverFetchesOnCount(t *testing.T) {
	counter := NewTokenCounter("cl100k_base")

	require.Equal(t, 3, counter.Count("twelve chars"))
	require.Nil(t, counter.encoder())
}

func TestLoadRespectsDeadline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewTokenCounter("not-a-real-encoding").Load(ctx)
	require.Error(t, err)
}

func TestLoadOnZeroCounterIsNoop(t *testing.T) {
	var counter TokenCounter
	require.NoError(t, counter.Load(context.Background()))
	require.Equal(t, 1, counter.Count("hi"))
}
