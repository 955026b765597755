package conversation

import (
	"sync"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one exchange entry in a user's tutor conversation.
type Turn struct {
	Role    Role
	Content string
}

// Window keeps a bounded per-user conversation history used as AI
// context. Eviction is FIFO by insertion order, not access order: turn
// order is what matters for model context, so reading history must not
// reorder it. State is process-local and best-effort; losing it resets
// conversational continuity, nothing else.
type Window struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*history
	maxDepth int
}

type history struct {
	mu    sync.Mutex
	turns []Turn
}

// DefaultMaxDepth is the number of turns retained per user when no
// depth is configured.
const DefaultMaxDepth = 20

// NewWindow creates a conversation window retaining at most maxDepth
// turns per user. Non-positive depths fall back to DefaultMaxDepth.
func NewWindow(maxDepth int) *Window {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Window{
		users:    make(map[uuid.UUID]*history),
		maxDepth: maxDepth,
	}
}

// Append adds a turn to the user's history, evicting the oldest turns
// once the depth cap is exceeded.
func (w *Window) Append(userID uuid.UUID, role Role, content string) {
	h := w.history(userID)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.turns = append(h.turns, Turn{Role: role, Content: content})
	if excess := len(h.turns) - w.maxDepth; excess > 0 {
		h.turns = append(h.turns[:0], h.turns[excess:]...)
	}
}

// History returns a copy of the user's turns, oldest first.
func (w *Window) History(userID uuid.UUID) []Turn {
	w.mu.RLock()
	h, exists := w.users[userID]
	w.mu.RUnlock()

	if !exists {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of retained turns for the user.
func (w *Window) Len(userID uuid.UUID) int {
	w.mu.RLock()
	h, exists := w.users[userID]
	w.mu.RUnlock()

	if !exists {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Clear resets the user's history to empty.
func (w *Window) Clear(userID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.users, userID)
}

func (w *Window) history(userID uuid.UUID) *history {
	w.mu.RLock()
	h, exists := w.users[userID]
	w.mu.RUnlock()
	if exists {
		return h
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if h, exists = w.users[userID]; exists {
		return h
	}
	h = &history{}
	w.users[userID] = h
	return h
}
