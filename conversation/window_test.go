package conversation_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/tutorkit/conversation"
)

func TestWindowAppend(t *testing.T) {
	t.Parallel()

	t.Run("retains turns in order", func(t *testing.T) {
		t.Parallel()

		w := conversation.NewWindow(20)
		userID := uuid.New()

		w.Append(userID, conversation.RoleUser, "what is a pointer?")
		w.Append(userID, conversation.RoleAssistant, "a pointer holds an address")

		turns := w.History(userID)
		require.Len(t, turns, 2)
		assert.Equal(t, conversation.RoleUser, turns[0].Role)
		assert.Equal(t, "what is a pointer?", turns[0].Content)
		assert.Equal(t, conversation.RoleAssistant, turns[1].Role)
	})

	t.Run("evicts oldest turns past the depth cap", func(t *testing.T) {
		t.Parallel()

		w := conversation.NewWindow(20)
		userID := uuid.New()

		for i := range 25 {
			w.Append(userID, conversation.RoleUser, fmt.Sprintf("turn %d", i))
		}

		turns := w.History(userID)
		require.Len(t, turns, 20)
		assert.Equal(t, "turn 5", turns[0].Content, "oldest five evicted")
		assert.Equal(t, "turn 24", turns[len(turns)-1].Content)
		assert.Equal(t, 20, w.Len(userID))
	})

	t.Run("users are isolated", func(t *testing.T) {
		t.Parallel()

		w := conversation.NewWindow(20)
		alice, bob := uuid.New(), uuid.New()

		w.Append(alice, conversation.RoleUser, "hello")

		assert.Len(t, w.History(alice), 1)
		assert.Empty(t, w.History(bob))
		assert.Zero(t, w.Len(bob))
	})

	t.Run("non-positive depth falls back to default", func(t *testing.T) {
		t.Parallel()

		w := conversation.NewWindow(0)
		userID := uuid.New()

		for i := range conversation.DefaultMaxDepth + 5 {
			w.Append(userID, conversation.RoleUser, fmt.Sprintf("turn %d", i))
		}

		assert.Equal(t, conversation.DefaultMaxDepth, w.Len(userID))
	})
}

func TestWindowHistoryIsACopy(t *testing.T) {
	t.Parallel()

	w := conversation.NewWindow(20)
	userID := uuid.New()

	w.Append(userID, conversation.RoleUser, "original")

	turns := w.History(userID)
	turns[0].Content = "mutated"

	assert.Equal(t, "original", w.History(userID)[0].Content)
}

func TestWindowClear(t *testing.T) {
	t.Parallel()

	w := conversation.NewWindow(20)
	userID := uuid.New()

	w.Append(userID, conversation.RoleUser, "hello")
	w.Clear(userID)

	assert.Empty(t, w.History(userID))
	assert.Zero(t, w.Len(userID))

	// Appending after clear starts fresh.
	w.Append(userID, conversation.RoleAssistant, "welcome back")
	assert.Equal(t, 1, w.Len(userID))
}

func TestWindowConcurrentAppends(t *testing.T) {
	t.Parallel()

	w := conversation.NewWindow(50)
	userID := uuid.New()

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Append(userID, conversation.RoleUser, "concurrent turn")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, w.Len(userID), "depth cap holds under concurrency")
}
