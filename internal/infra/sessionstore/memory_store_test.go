package sessionstore

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/fishai-advisor/internal/domain/advisor"
	"github.com/yanqian/fishai-advisor/internal/infra/config"
)

func newTestStore(capacity int) *MemoryStore {
	return NewMemoryStore(config.ChatConfig{MaxSessions: capacity}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetOrCreate(t *testing.T) {
	store := newTestStore(100)

	id, transcript, created := store.GetOrCreate("")
	require.True(t, created)
	require.Empty(t, transcript)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	store.Append(id, advisor.Turn{Role: advisor.RoleUser, Content: "hi"})
	again, transcript, created := store.GetOrCreate(id)
	require.False(t, created)
	require.Equal(t, id, again)
	require.Len(t, transcript, 1)

	const supplied = "5d6c3c4e-0f0e-4b53-9a47-4a1c3a5c9d11"
	got, transcript, created := store.GetOrCreate(supplied)
	require.True(t, created)
	require.Equal(t, supplied, got)
	require.Empty(t, transcript)
}

func TestRecentWindowSingleExchange(t *testing.T) {
	store := newTestStore(100)
	id, _, _ := store.GetOrCreate("")

	store.Append(id, advisor.Turn{Role: advisor.RoleUser, Content: "what bait?"})
	store.Append(id, advisor.Turn{Role: advisor.RoleAssistant, Content: "worms, survivor."})

	require.Equal(t, []advisor.Turn{
		{Role: advisor.RoleUser, Content: "what bait?"},
		{Role: advisor.RoleAssistant, Content: "worms, survivor."},
	}, store.RecentWindow(id, 20))
}

func TestRecentWindowKeepsTail(t *testing.T) {
	store := newTestStore(100)
	id, _, _ := store.GetOrCreate("")

	for i := 0; i < 21; i++ {
		store.Append(id, advisor.Turn{Role: advisor.RoleUser, Content: fmt.Sprintf("q%d", i)})
		store.Append(id, advisor.Turn{Role: advisor.RoleAssistant, Content: fmt.Sprintf("a%d", i)})
	}

	window := store.RecentWindow(id, 20)
	require.Len(t, window, 20)
	require.Equal(t, "q11", window[0].Content)
	require.Equal(t, "a20", window[19].Content)

	window[0].Content = "mutated"
	_, full, _ := store.GetOrCreate(id)
	require.Len(t, full, 42)
	require.Equal(t, "q11", full[22].Content)
}

func TestEvictIfOverCapacityDropsEarliest(t *testing.T) {
	store := newTestStore(100)
	ids := make([]string, 0, 101)
	for i := 0; i < 101; i++ {
		id, _, created := store.GetOrCreate("")
		require.True(t, created)
		store.Append(id, advisor.Turn{Role: advisor.RoleUser, Content: "hello"})
		ids = append(ids, id)
	}
	// Touching the oldest session does not protect it.
	store.Append(ids[0], advisor.Turn{Role: advisor.RoleUser, Content: "still here?"})

	require.Equal(t, 1, store.EvictIfOverCapacity())
	require.Equal(t, 100, store.Len())
	require.Empty(t, store.RecentWindow(ids[0], 20))
	for _, id := range ids[1:] {
		require.Len(t, store.RecentWindow(id, 20), 1)
	}
	require.Zero(t, store.EvictIfOverCapacity())
}

func TestAppendSkipsEvictedSession(t *testing.T) {
	store := newTestStore(2)
	first, _, _ := store.GetOrCreate("")
	require.True(t, store.Append(first, advisor.Turn{Role: advisor.RoleUser, Content: "any pike here?"}))

	for i := 0; i < 2; i++ {
		store.GetOrCreate("")
		store.EvictIfOverCapacity()
	}

	require.False(t, store.Append(first, advisor.Turn{Role: advisor.RoleAssistant, Content: "late reply"}))
	require.Equal(t, 2, store.Len())
	require.Empty(t, store.RecentWindow(first, 20))

	again, transcript, created := store.GetOrCreate(first)
	require.True(t, created)
	require.Equal(t, first, again)
	require.Empty(t, transcript)
	require.Equal(t, 1, store.EvictIfOverCapacity())
	require.Equal(t, 2, store.Len())
}

func TestConcurrentAppendsKeepEveryTurn(t *testing.T) {
	store := newTestStore(100)
	id, _, _ := store.GetOrCreate("")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Append(id, advisor.Turn{Role: advisor.RoleUser, Content: fmt.Sprint(i)})
		}(i)
	}
	wg.Wait()
	require.Len(t, store.RecentWindow(id, 100), 50)
}
