package rag

import (
	"context"
	"fmt"
	"strings"

	"praxis/internal/config"
	"praxis/internal/embedding"
	"praxis/internal/llm"
	"praxis/internal/logging"
	"praxis/internal/store"
)

// Pipeline wires the splitter, embedding engine, store, and LLM into
// ingest and query operations.
type Pipeline struct {
	cfg      config.RAGConfig
	engine   embedding.Engine
	store    *store.Store
	client   llm.Client
	splitter *Splitter
}

// NewPipeline assembles a pipeline.
func NewPipeline(cfg config.RAGConfig, engine embedding.Engine, st *store.Store, client llm.Client) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		engine:   engine,
		store:    st,
		client:   client,
		splitter: NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
	}
}

// IngestStats reports what an ingest run did.
type IngestStats struct {
	Documents int
	Chunks    int
}

// IngestDirectory loads, chunks, embeds, and stores every document in dir.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir string) (IngestStats, error) {
	timer := logging.StartTimer(logging.CategoryRAG, "IngestDirectory")
	defer timer.Stop()

	docs, err := LoadDirectory(dir)
	if err != nil {
		return IngestStats{}, err
	}

	var stats IngestStats
	for _, doc := range docs {
		n, err := p.IngestDocument(ctx, doc)
		if err != nil {
			return stats, fmt.Errorf("ingest %s: %w", doc.Source, err)
		}
		stats.Documents++
		stats.Chunks += n
	}
	logging.Get(logging.CategoryRAG).Infow("ingest complete",
		"documents", stats.Documents, "chunks", stats.Chunks)
	return stats, nil
}

// IngestDocument chunks, embeds, and stores one document, returning the
// chunk count.
func (p *Pipeline) IngestDocument(ctx context.Context, doc Document) (int, error) {
	texts := p.splitter.Split(doc.Content)
	if len(texts) == 0 {
		return 0, nil
	}

	vectors, err := p.engine.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}

	chunks := make([]store.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = store.Chunk{Seq: i, Content: text, Vector: vectors[i]}
	}
	if err := p.store.AddDocument(ctx, doc.Source, doc.Content, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// Answer is the result of a RAG query.
type Answer struct {
	Question string
	Text     string
	Sources  []string
	Hits     []store.Hit
}

// Query retrieves relevant chunks and answers the question from them.
func (p *Pipeline) Query(ctx context.Context, question string) (Answer, error) {
	timer := logging.StartTimer(logging.CategoryRAG, "Query")
	defer timer.Stop()

	hits, err := p.Retrieve(ctx, question)
	if err != nil {
		return Answer{}, err
	}
	if len(hits) == 0 {
		return Answer{
			Question: question,
			Text:     "I could not find anything relevant in the ingested documents.",
		}, nil
	}
	return p.answerFrom(ctx, question, hits)
}

// Retrieve runs hybrid retrieval: vector search blended with keyword hits.
func (p *Pipeline) Retrieve(ctx context.Context, question string) ([]store.Hit, error) {
	qvec, err := p.engine.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vecHits, err := p.store.Search(ctx, qvec, p.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	if p.cfg.HybridKeywordWeight <= 0 {
		return vecHits, nil
	}
	kwHits := p.keywordHits(ctx, question)
	return mergeHits(vecHits, kwHits, p.cfg.HybridKeywordWeight, p.cfg.TopK), nil
}

// keywordHits scores chunks by query-term occurrences.
func (p *Pipeline) keywordHits(ctx context.Context, question string) []store.Hit {
	scores := make(map[int64]*store.Hit)
	counts := make(map[int64]int)
	for _, term := range QueryTerms(question) {
		hits, err := p.store.SearchKeyword(ctx, term, p.cfg.TopK*4)
		if err != nil {
			logging.Get(logging.CategoryRAG).Warnw("keyword search failed", "term", term, "err", err)
			continue
		}
		for i := range hits {
			h := hits[i]
			if _, ok := scores[h.ChunkID]; ok {
				counts[h.ChunkID]++
			} else {
				scores[h.ChunkID] = &h
				counts[h.ChunkID] = 1
			}
		}
	}

	terms := len(QueryTerms(question))
	var out []store.Hit
	for id, h := range scores {
		hit := *h
		if terms > 0 {
			hit.Score = float64(counts[id]) / float64(terms)
		}
		out = append(out, hit)
	}
	return out
}

// mergeHits blends keyword scores into vector scores and returns the topK.
func mergeHits(vecHits, kwHits []store.Hit, kwWeight float64, topK int) []store.Hit {
	merged := make(map[int64]store.Hit)
	for _, h := range vecHits {
		h.Score *= 1 - kwWeight
		merged[h.ChunkID] = h
	}
	for _, h := range kwHits {
		if existing, ok := merged[h.ChunkID]; ok {
			existing.Score += h.Score * kwWeight
			merged[h.ChunkID] = existing
		} else {
			h.Score *= kwWeight
			merged[h.ChunkID] = h
		}
	}

	out := make([]store.Hit, 0, len(merged))
	for _, h := range merged {
		out = append(out, h)
	}
	sortHitsByScore(out)
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// answerFrom builds a cited context block and asks the LLM.
func (p *Pipeline) answerFrom(ctx context.Context, question string, hits []store.Hit) (Answer, error) {
	var contextBlock strings.Builder
	seen := make(map[string]bool)
	var sources []string
	for i, h := range hits {
		fmt.Fprintf(&contextBlock, "[Source %d: %s]\n%s\n\n", i+1, h.Source, h.Content)
		if !seen[h.Source] {
			seen[h.Source] = true
			sources = append(sources, h.Source)
		}
	}

	system := "You answer questions using only the provided context. " +
		"Cite sources as [Source N]. If the context does not contain the answer, say so."
	prompt := fmt.Sprintf("Context:\n%s\nQuestion: %s", contextBlock.String(), question)

	text, err := p.client.CompleteWithSystem(ctx, system, prompt)
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}
	return Answer{
		Question: question,
		Text:     strings.TrimSpace(text),
		Sources:  sources,
		Hits:     hits,
	}, nil
}
