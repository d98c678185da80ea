package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"praxis/internal/llm"
	"praxis/internal/store"
)

// Session is a persistent conversation: every turn is written to the
// store, and the recent window is reloaded on construction so a chat can
// resume where it left off.
type Session struct {
	ID     string
	store  *store.Store
	window *WindowBuffer
	prefs  *PreferenceStore
}

// NewSession opens (or resumes) a session. Pass an empty id to start a
// fresh one.
func NewSession(ctx context.Context, s *store.Store, id string, windowSize int) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	sess := &Session{
		ID:     id,
		store:  s,
		window: NewWindowBuffer(windowSize),
		prefs:  NewPreferenceStore(s),
	}

	// Reload up to a window's worth of prior turns.
	msgs, err := s.LoadMessages(ctx, id, windowSize*2)
	if err != nil {
		return nil, fmt.Errorf("resume session %s: %w", id, err)
	}
	for _, m := range msgs {
		sess.window.Add(llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}
	return sess, nil
}

// Record persists one exchange and folds it into the window, extracting
// preferences from the user side.
func (s *Session) Record(ctx context.Context, user, assistant string) error {
	if err := s.store.AppendMessage(ctx, s.ID, string(llm.RoleUser), user); err != nil {
		return err
	}
	if err := s.store.AppendMessage(ctx, s.ID, string(llm.RoleAssistant), assistant); err != nil {
		return err
	}
	s.window.AddExchange(user, assistant)
	return s.prefs.Observe(ctx, user)
}

// History returns the in-window conversation history.
func (s *Session) History() []llm.Message {
	return s.window.Messages()
}

// Preferences returns everything extracted so far across all sessions.
func (s *Session) Preferences(ctx context.Context) (map[string]string, error) {
	return s.prefs.All(ctx)
}
