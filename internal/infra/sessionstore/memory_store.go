package sessionstore

import (
	"container/list"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/yanqian/fishai-advisor/internal/domain/advisor"
	"github.com/yanqian/fishai-advisor/internal/infra/config"
)

type session struct {
	turns []advisor.Turn
}

// MemoryStore keeps chat transcripts in process memory. When it holds more
// than its capacity it evicts by insertion order, not by last access.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	order    *list.List
	capacity int
	logger   *slog.Logger
	newID    func() string
}

// NewMemoryStore constructs a store bounded by cfg.MaxSessions.
func NewMemoryStore(cfg config.ChatConfig, logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*session),
		order:    list.New(),
		capacity: cfg.MaxSessions,
		logger:   logger.With("component", "sessionstore.memory"),
		newID:    uuid.NewString,
	}
}

// GetOrCreate implements advisor.SessionStore. The returned transcript is a copy.
func (s *MemoryStore) GetOrCreate(sessionID string) (string, []advisor.Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessionID == "" {
		sessionID = s.newID()
	}
	if sess, ok := s.sessions[sessionID]; ok {
		return sessionID, cloneTurns(sess.turns), false
	}
	s.createLocked(sessionID)
	return sessionID, []advisor.Turn{}, true
}

// Append adds a turn to a live session. An evicted session is not
// recreated, so the store never grows past capacity outside GetOrCreate.
func (s *MemoryStore) Append(sessionID string, turn advisor.Turn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	sess.turns = append(sess.turns, turn)
	return true
}

// RecentWindow returns up to the last n turns in their original order.
func (s *MemoryStore) RecentWindow(sessionID string, n int) []advisor.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || n <= 0 {
		return []advisor.Turn{}
	}
	turns := sess.turns
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return cloneTurns(turns)
}

// EvictIfOverCapacity removes the oldest-inserted sessions until the store
// is within capacity and returns how many were removed.
func (s *MemoryStore) EvictIfOverCapacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for s.capacity > 0 && len(s.sessions) > s.capacity {
		oldest := s.order.Front()
		if oldest == nil {
			break
		}
		id := s.order.Remove(oldest).(string)
		delete(s.sessions, id)
		evicted++
		s.logger.Debug("chat session evicted", "session", id)
	}
	return evicted
}

// Len reports the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *MemoryStore) createLocked(sessionID string) {
	s.sessions[sessionID] = &session{}
	s.order.PushBack(sessionID)
}

func cloneTurns(turns []advisor.Turn) []advisor.Turn {
	out := make([]advisor.Turn, len(turns))
	copy(out, turns)
	return out
}

var _ advisor.SessionStore = (*MemoryStore)(nil)
