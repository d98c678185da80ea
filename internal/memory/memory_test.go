package memory

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"praxis/internal/llm"
	"praxis/internal/llm/llmtest"
	"praxis/internal/store"
)

func TestWindowBufferEvictsOldExchanges(t *testing.T) {
	w := NewWindowBuffer(2)
	w.AddExchange("q1", "a1")
	w.AddExchange("q2", "a2")
	w.AddExchange("q3", "a3")

	msgs := w.Messages()
	if len(msgs) != 4 {
		t.Fatalf("messages=%d, want 4 (2 exchanges)", len(msgs))
	}
	if msgs[0].Content != "q2" {
		t.Fatalf("oldest=%q, want q2", msgs[0].Content)
	}
	if msgs[3].Content != "a3" {
		t.Fatalf("newest=%q, want a3", msgs[3].Content)
	}
}

func TestSummaryMemoryCompacts(t *testing.T) {
	mock := llmtest.NewMockClient("SUMMARY: user asked about Go and testing")
	// Tiny window and threshold so a few turns force compaction.
	m := NewSummaryMemory(mock, 1, 10)

	ctx := context.Background()
	long := strings.Repeat("tell me about go testing ", 10)
	if err := m.AddExchange(ctx, long, "sure, here is a long answer about it"); err != nil {
		t.Fatalf("AddExchange: %v", err)
	}
	if err := m.AddExchange(ctx, long, "more detail"); err != nil {
		t.Fatalf("AddExchange: %v", err)
	}
	if err := m.AddExchange(ctx, "thanks", "welcome"); err != nil {
		t.Fatalf("AddExchange: %v", err)
	}

	if m.Summary() == "" {
		t.Fatal("summary never generated")
	}
	if mock.CallCount() == 0 {
		t.Fatal("summarizer LLM never called")
	}

	ctxMsgs := m.Context()
	if ctxMsgs[0].Role != llm.RoleSystem || !strings.Contains(ctxMsgs[0].Content, "SUMMARY") {
		t.Fatalf("context head=%+v, want summary system message", ctxMsgs[0])
	}
}

func TestExtractPreferences(t *testing.T) {
	tests := []struct {
		input     string
		wantName  string
		wantFirst string
	}{
		{"My name is alice and I love hiking", "Alice", "hiking"},
		{"call me Bob", "Bob", ""},
		{"I'm interested in machine learning.", "", "machine learning"},
		{"I'm sure that's wrong", "", ""},
		{"i am not happy", "", ""},
		{"I enjoy long walks, mostly at night", "", "long walks"},
		{"the weather is nice", "", ""},
	}
	for _, tt := range tests {
		got := ExtractPreferences(tt.input)
		if got.Name != tt.wantName {
			t.Errorf("ExtractPreferences(%q).Name=%q, want %q", tt.input, got.Name, tt.wantName)
		}
		first := ""
		if len(got.Interests) > 0 {
			first = got.Interests[0]
		}
		if first != tt.wantFirst {
			t.Errorf("ExtractPreferences(%q).Interests[0]=%q, want %q", tt.input, first, tt.wantFirst)
		}
	}
}

func TestSessionPersistsAndResumes(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "mem.db")
	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	sess, err := NewSession(ctx, s, "", 5)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := sess.Record(ctx, "my name is carol", "hi Carol"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	// Resume under the same ID; history and preferences survive.
	resumed, err := NewSession(ctx, s, sess.ID, 5)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	hist := resumed.History()
	if len(hist) != 2 || hist[0].Content != "my name is carol" {
		t.Fatalf("resumed history=%+v", hist)
	}

	prefs, err := resumed.Preferences(ctx)
	if err != nil {
		t.Fatalf("Preferences: %v", err)
	}
	if prefs["name"] != "Carol" {
		t.Fatalf("prefs=%v, want name=Carol", prefs)
	}
}
