package memory

import (
	"context"
	"fmt"
	"strings"

	"praxis/internal/llm"
	"praxis/internal/logging"
)

// SummaryMemory compacts history that falls out of the recent window into
// a rolling summary, so long conversations keep a bounded prompt size
// without losing the thread entirely.
type SummaryMemory struct {
	client    llm.Client
	window    *WindowBuffer
	threshold int // approximate token budget before compaction

	summary string
	// overflow holds messages evicted from the window, pending compaction.
	overflow []llm.Message
}

// NewSummaryMemory wraps a window buffer with summary compaction.
func NewSummaryMemory(client llm.Client, windowSize, threshold int) *SummaryMemory {
	if threshold <= 0 {
		threshold = 2000
	}
	return &SummaryMemory{
		client:    client,
		window:    NewWindowBuffer(windowSize),
		threshold: threshold,
	}
}

// approxTokens estimates token count as chars/4, the usual rough cut.
func approxTokens(messages []llm.Message) int {
	n := 0
	for _, m := range messages {
		n += len(m.Content) / 4
	}
	return n
}

// AddExchange records a turn pair and compacts when over budget.
func (s *SummaryMemory) AddExchange(ctx context.Context, user, assistant string) error {
	before := s.window.Messages()
	s.window.AddExchange(user, assistant)
	after := s.window.Messages()

	// Anything evicted from the window moves to the overflow queue.
	if evicted := len(before) + 2 - len(after); evicted > 0 {
		s.overflow = append(s.overflow, before[:evicted]...)
	}

	if approxTokens(s.overflow) < s.threshold {
		return nil
	}
	return s.compact(ctx)
}

// compact folds the overflow queue into the running summary via the LLM.
func (s *SummaryMemory) compact(ctx context.Context) error {
	if len(s.overflow) == 0 {
		return nil
	}
	timer := logging.StartTimer(logging.CategoryMemory, "compact")
	defer timer.Stop()

	var sb strings.Builder
	for _, m := range s.overflow {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}

	prompt := fmt.Sprintf(`Current conversation summary:
%s

New conversation lines:
%s

Update the summary to incorporate the new lines. Keep it under 200 words,
preserving names, decisions, and open questions.`, orNone(s.summary), sb.String())

	updated, err := s.client.CompleteWithSystem(ctx,
		"You maintain concise running summaries of conversations.", prompt)
	if err != nil {
		return fmt.Errorf("summarize history: %w", err)
	}
	s.summary = strings.TrimSpace(updated)
	s.overflow = nil
	return nil
}

// Context returns the messages to prepend to the next prompt: the summary
// (as a system message) followed by the verbatim recent window.
func (s *SummaryMemory) Context() []llm.Message {
	var msgs []llm.Message
	if s.summary != "" {
		msgs = append(msgs, llm.Message{
			Role:    llm.RoleSystem,
			Content: "Conversation so far (summarized): " + s.summary,
		})
	}
	return append(msgs, s.window.Messages()...)
}

// Summary returns the current rolling summary.
func (s *SummaryMemory) Summary() string { return s.summary }

func orNone(s string) string {
	if s == "" {
		return "(none yet)"
	}
	return s
}
