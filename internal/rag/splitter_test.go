package rag

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(100, 20)
	chunks := s.Split("a short paragraph")
	if len(chunks) != 1 || chunks[0] != "a short paragraph" {
		t.Fatalf("chunks=%v, want one unchanged chunk", chunks)
	}
}

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter(100, 20)
	if chunks := s.Split("   \n  "); chunks != nil {
		t.Fatalf("chunks=%v, want nil", chunks)
	}
}

func TestSplitRespectsChunkSize(t *testing.T) {
	s := NewSplitter(50, 10)
	text := strings.Repeat("some words here. ", 40)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("chunks=%d, want several", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 50+10 {
			t.Fatalf("chunk %d has %d chars, over the limit: %q", i, len(c), c)
		}
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	s := NewSplitter(40, 0)
	text := "first paragraph is right here.\n\nsecond paragraph follows it."
	chunks := s.Split(text)
	if len(chunks) != 2 {
		t.Fatalf("chunks=%d (%v), want 2", len(chunks), chunks)
	}
	if !strings.HasPrefix(chunks[0], "first") || !strings.HasPrefix(chunks[1], "second") {
		t.Fatalf("paragraphs not kept intact: %v", chunks)
	}
}

func TestSplitCarriesOverlap(t *testing.T) {
	s := NewSplitter(30, 10)
	text := strings.Repeat("abcde ", 20)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("chunks=%d, want several", len(chunks))
	}
	// The tail of each chunk should reappear at the head of the next.
	tail := chunks[0][len(chunks[0])-5:]
	if !strings.Contains(chunks[1], strings.TrimSpace(tail)) {
		t.Fatalf("overlap not carried: tail=%q next=%q", tail, chunks[1])
	}
}

func TestSplitHardCutWithoutSeparators(t *testing.T) {
	s := NewSplitter(10, 0)
	chunks := s.Split(strings.Repeat("x", 35))
	if len(chunks) != 4 {
		t.Fatalf("chunks=%d, want 4", len(chunks))
	}
	for _, c := range chunks[:3] {
		if len(c) != 10 {
			t.Fatalf("chunk %q len=%d, want 10", c, len(c))
		}
	}
}

func TestSplitOverlapStaysOnRuneBoundary(t *testing.T) {
	// Three-byte runes with word separators; the overlap carry of 8
	// bytes lands mid-rune unless it backs off to a boundary.
	s := NewSplitter(30, 8)
	text := strings.Repeat("日本語のテキスト ", 8)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("chunks=%d, want several", len(chunks))
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Fatalf("chunk %d is not valid UTF-8: %q", i, c)
		}
	}
}

func TestSplitHardCutStaysOnRuneBoundary(t *testing.T) {
	// No separators at all: the hard cut must not split a rune.
	s := NewSplitter(20, 0)
	chunks := s.Split(strings.Repeat("語", 40))
	if len(chunks) < 2 {
		t.Fatalf("chunks=%d, want several", len(chunks))
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Fatalf("chunk %d is not valid UTF-8: %q", i, c)
		}
		if len(c) > 20 {
			t.Fatalf("chunk %d len=%d, want <= 20", i, len(c))
		}
	}
}

func TestNewSplitterDefaults(t *testing.T) {
	s := NewSplitter(0, -1)
	if s.ChunkSize != 1000 {
		t.Fatalf("ChunkSize=%d, want 1000", s.ChunkSize)
	}
	if s.ChunkOverlap != 200 {
		t.Fatalf("ChunkOverlap=%d, want 200", s.ChunkOverlap)
	}
}
