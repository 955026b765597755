package tutor

import (
	"context"

	"github.com/lessonforge/tutorkit/conversation"
)

// Provider is the conversational AI backend. It receives the bounded
// conversation history as context plus the new message, and returns the
// assistant's reply. Implementations own their own timeouts; the gate
// never calls a provider while holding a lock.
type Provider interface {
	Reply(ctx context.Context, history []conversation.Turn, message string) (string, error)
}
