package rag

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"praxis/internal/config"
	"praxis/internal/llm/llmtest"
	"praxis/internal/store"
)

// fakeEngine embeds text into a fixed vocabulary of term counts so related
// texts land near each other without a real model.
type fakeEngine struct {
	vocab []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{vocab: []string{"cat", "dog", "moon", "rocket", "cheese"}}
}

func (e *fakeEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.vocab))
	for i, term := range e.vocab {
		vec[i] = float32(strings.Count(lower, term))
	}
	return vec, nil
}

func (e *fakeEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *fakeEngine) Dimensions() int { return len(e.vocab) }
func (e *fakeEngine) Name() string    { return "fake" }

func testPipeline(t *testing.T, client *llmtest.MockClient) (*Pipeline, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "rag.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.DefaultRAGConfig()
	cfg.ChunkSize = 80
	cfg.ChunkOverlap = 0
	cfg.TopK = 3
	return NewPipeline(cfg, newFakeEngine(), st, client), st
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"pets.txt":  "The cat slept all day.\n\nThe dog barked at the mailman.",
		"space.md":  "The rocket reached the moon in three days.",
		"skip.yaml": "not: loadable",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	p, st := testPipeline(t, llmtest.NewMockClient("unused"))
	stats, err := p.IngestDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("IngestDirectory: %v", err)
	}
	if stats.Documents != 2 {
		t.Fatalf("Documents=%d, want 2", stats.Documents)
	}
	if stats.Chunks < 2 {
		t.Fatalf("Chunks=%d, want at least 2", stats.Chunks)
	}

	n, err := st.DocumentCount(context.Background())
	if err != nil {
		t.Fatalf("DocumentCount: %v", err)
	}
	if n != 2 {
		t.Fatalf("stored documents=%d, want 2", n)
	}
}

func TestQueryRetrievesAndCites(t *testing.T) {
	client := llmtest.NewMockClient("The rocket took three days [Source 1].")
	p, _ := testPipeline(t, client)
	ctx := context.Background()

	docs := []Document{
		{Source: "space.md", Content: "The rocket reached the moon in three days."},
		{Source: "pets.txt", Content: "The cat slept on the dog's bed."},
	}
	for _, doc := range docs {
		if _, err := p.IngestDocument(ctx, doc); err != nil {
			t.Fatalf("IngestDocument: %v", err)
		}
	}

	ans, err := p.Query(ctx, "How long did the rocket take to reach the moon?")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if ans.Text != "The rocket took three days [Source 1]." {
		t.Fatalf("Text=%q", ans.Text)
	}
	if len(ans.Hits) == 0 {
		t.Fatal("no hits returned")
	}
	if ans.Hits[0].Source != "space.md" {
		t.Fatalf("top hit source=%q, want space.md", ans.Hits[0].Source)
	}
	if len(client.Calls) != 1 {
		t.Fatalf("LLM calls=%d, want 1", len(client.Calls))
	}
	if !strings.Contains(client.Calls[0], "[Source 1: space.md]") {
		t.Fatalf("prompt missing source block: %q", client.Calls[0])
	}
}

func TestQueryEmptyStore(t *testing.T) {
	client := llmtest.NewMockClient("unused")
	p, _ := testPipeline(t, client)

	ans, err := p.Query(context.Background(), "anything at all?")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !strings.Contains(ans.Text, "could not find") {
		t.Fatalf("Text=%q, want a no-results message", ans.Text)
	}
	if client.CallCount() != 0 {
		t.Fatalf("LLM called %d times on empty store", client.CallCount())
	}
}

func TestTransformQueryIncludesOriginal(t *testing.T) {
	client := llmtest.NewMockClient("- rocket travel time to moon\n2. lunar trip duration\n\n")
	p, _ := testPipeline(t, client)

	queries, err := p.TransformQuery(context.Background(), "how long to the moon?", 3)
	if err != nil {
		t.Fatalf("TransformQuery: %v", err)
	}
	want := []string{
		"how long to the moon?",
		"rocket travel time to moon",
		"lunar trip duration",
	}
	if len(queries) != len(want) {
		t.Fatalf("queries=%v, want %v", queries, want)
	}
	for i := range want {
		if queries[i] != want[i] {
			t.Fatalf("queries[%d]=%q, want %q", i, queries[i], want[i])
		}
	}
}

func TestMultiQueryRetrieveDeduplicates(t *testing.T) {
	client := llmtest.NewMockClient("moon rocket duration\nrocket speed to moon")
	p, _ := testPipeline(t, client)
	ctx := context.Background()

	if _, err := p.IngestDocument(ctx, Document{
		Source:  "space.md",
		Content: "The rocket reached the moon in three days.",
	}); err != nil {
		t.Fatalf("IngestDocument: %v", err)
	}

	hits, err := p.MultiQueryRetrieve(ctx, "how fast was the rocket to the moon?")
	if err != nil {
		t.Fatalf("MultiQueryRetrieve: %v", err)
	}
	seen := make(map[int64]bool)
	for _, h := range hits {
		if seen[h.ChunkID] {
			t.Fatalf("duplicate chunk %d in results", h.ChunkID)
		}
		seen[h.ChunkID] = true
	}
	if len(hits) == 0 {
		t.Fatal("no hits returned")
	}
}

func TestHyDEEmbedsHypotheticalAnswer(t *testing.T) {
	client := llmtest.NewMockClient("The rocket took about three days to reach the moon.")
	p, _ := testPipeline(t, client)
	ctx := context.Background()

	if _, err := p.IngestDocument(ctx, Document{
		Source:  "space.md",
		Content: "The rocket reached the moon in three days.",
	}); err != nil {
		t.Fatalf("IngestDocument: %v", err)
	}

	hits, err := p.HyDE(ctx, "travel duration?")
	if err != nil {
		t.Fatalf("HyDE: %v", err)
	}
	if len(hits) == 0 || hits[0].Source != "space.md" {
		t.Fatalf("hits=%v, want space.md first", hits)
	}
}

func TestRerank(t *testing.T) {
	hits := []store.Hit{
		{ChunkID: 1, Content: "nothing relevant here", Score: 0.9},
		{ChunkID: 2, Content: "the rocket reached the moon", Score: 0.8},
		{ChunkID: 3, Content: "also irrelevant", Score: 0.1},
	}
	out := Rerank("rocket moon", hits, 2)
	if len(out) != 2 {
		t.Fatalf("len=%d, want 2", len(out))
	}
	if out[0].ChunkID != 2 {
		t.Fatalf("top chunk=%d, want 2 (term overlap should win)", out[0].ChunkID)
	}
	// Input order must be untouched.
	if hits[0].ChunkID != 1 || hits[0].Score != 0.9 {
		t.Fatalf("input mutated: %v", hits)
	}
}

func TestMergeHits(t *testing.T) {
	vec := []store.Hit{
		{ChunkID: 1, Score: 1.0},
		{ChunkID: 2, Score: 0.5},
	}
	kw := []store.Hit{
		{ChunkID: 2, Score: 1.0},
		{ChunkID: 3, Score: 1.0},
	}
	out := mergeHits(vec, kw, 0.3, 10)
	scores := make(map[int64]float64)
	for _, h := range out {
		scores[h.ChunkID] = h.Score
	}
	if got := scores[1]; got != 0.7 {
		t.Fatalf("chunk 1 score=%v, want 0.7", got)
	}
	if got := scores[2]; got < 0.64 || got > 0.66 {
		t.Fatalf("chunk 2 score=%v, want 0.65", got)
	}
	if got := scores[3]; got < 0.29 || got > 0.31 {
		t.Fatalf("chunk 3 score=%v, want 0.3", got)
	}
	if out[0].ChunkID != 1 {
		t.Fatalf("top chunk=%d, want 1", out[0].ChunkID)
	}
}
