package rag

import (
	"strings"
	"unicode/utf8"
)

// Splitter breaks text into overlapping chunks, preferring to split on
// paragraph, then line, then sentence, then word boundaries before falling
// back to hard cuts.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	separators   []string
}

// NewSplitter creates a splitter; zero values get the usual 1000/200.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		separators:   []string{"\n\n", "\n", ". ", " ", ""},
	}
}

// Split breaks text into chunks of at most ChunkSize characters with
// ChunkOverlap characters of trailing context carried into the next chunk.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= s.ChunkSize {
		return []string{text}
	}

	pieces := s.split(text, 0)

	// Merge small pieces back together up to ChunkSize, carrying overlap.
	var chunks []string
	var current strings.Builder
	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+len(piece) > s.ChunkSize {
			chunk := strings.TrimSpace(current.String())
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			current.Reset()
			if s.ChunkOverlap > 0 && len(chunk) > s.ChunkOverlap {
				// Byte slicing can land inside a multi-byte rune.
				start := nextRuneStart(chunk, len(chunk)-s.ChunkOverlap)
				if start < len(chunk) {
					current.WriteString(chunk[start:])
				}
			}
		}
		current.WriteString(piece)
	}
	if tail := strings.TrimSpace(current.String()); tail != "" {
		chunks = append(chunks, tail)
	}
	return chunks
}

// split recursively divides text on the separator hierarchy until every
// piece fits within ChunkSize.
func (s *Splitter) split(text string, sepIndex int) []string {
	if len(text) <= s.ChunkSize {
		return []string{text}
	}
	if sepIndex >= len(s.separators) {
		// No separators left: hard cut on a rune boundary.
		var out []string
		for len(text) > s.ChunkSize {
			cut := s.ChunkSize
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				cut = s.ChunkSize
			}
			out = append(out, text[:cut])
			text = text[cut:]
		}
		if text != "" {
			out = append(out, text)
		}
		return out
	}

	sep := s.separators[sepIndex]
	if sep == "" {
		return s.split(text, sepIndex+1)
	}

	parts := strings.SplitAfter(text, sep)
	if len(parts) == 1 {
		return s.split(text, sepIndex+1)
	}

	var out []string
	for _, part := range parts {
		if len(part) > s.ChunkSize {
			out = append(out, s.split(part, sepIndex+1)...)
		} else if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// nextRuneStart advances i to the nearest rune boundary at or after it.
func nextRuneStart(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}
