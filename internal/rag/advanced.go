package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"praxis/internal/logging"
	"praxis/internal/store"
)

// TransformQuery asks the LLM for phrasing variations of the question.
// The original question is always the first entry of the result.
func (p *Pipeline) TransformQuery(ctx context.Context, question string, n int) ([]string, error) {
	if n <= 0 {
		n = 3
	}
	prompt := fmt.Sprintf(
		"Generate %d alternative phrasings of this search query, one per line, no numbering:\n%s",
		n, question)
	out, err := p.client.CompleteWithSystem(ctx,
		"You rewrite search queries to improve document retrieval.", prompt)
	if err != nil {
		return nil, fmt.Errorf("transform query: %w", err)
	}

	queries := []string{question}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. "))
		if line != "" && !strings.EqualFold(line, question) {
			queries = append(queries, line)
		}
		if len(queries) > n {
			break
		}
	}
	return queries, nil
}

// HyDE embeds a hypothetical answer instead of the question itself.
// Hypothetical answers live in the same region of embedding space as real
// ones, which often beats embedding a terse question directly.
func (p *Pipeline) HyDE(ctx context.Context, question string) ([]store.Hit, error) {
	hypothetical, err := p.client.CompleteWithSystem(ctx,
		"Write a short plausible answer to the question. It does not need to be accurate; it will only be used for document retrieval.",
		question)
	if err != nil {
		return nil, fmt.Errorf("generate hypothetical answer: %w", err)
	}

	vec, err := p.engine.Embed(ctx, hypothetical)
	if err != nil {
		return nil, fmt.Errorf("embed hypothetical: %w", err)
	}
	return p.store.Search(ctx, vec, p.cfg.TopK)
}

// MultiQueryRetrieve fans retrieval out over query variations in parallel
// and merges the deduplicated results.
func (p *Pipeline) MultiQueryRetrieve(ctx context.Context, question string) ([]store.Hit, error) {
	timer := logging.StartTimer(logging.CategoryRAG, "MultiQueryRetrieve")
	defer timer.Stop()

	queries, err := p.TransformQuery(ctx, question, 3)
	if err != nil {
		// Retrieval degrades to single-query rather than failing outright.
		logging.Get(logging.CategoryRAG).Warnw("query transform failed", "err", err)
		queries = []string{question}
	}

	var mu sync.Mutex
	best := make(map[int64]store.Hit)

	g, gctx := errgroup.WithContext(ctx)
	for _, q := range queries {
		g.Go(func() error {
			vec, err := p.engine.Embed(gctx, q)
			if err != nil {
				return fmt.Errorf("embed %q: %w", q, err)
			}
			hits, err := p.store.Search(gctx, vec, p.cfg.TopK)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, h := range hits {
				if existing, ok := best[h.ChunkID]; !ok || h.Score > existing.Score {
					best[h.ChunkID] = h
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]store.Hit, 0, len(best))
	for _, h := range best {
		out = append(out, h)
	}
	sortHitsByScore(out)
	return out, nil
}

// Rerank re-scores hits by blending vector score with query-term overlap
// and cuts to topK.
func Rerank(question string, hits []store.Hit, topK int) []store.Hit {
	if topK <= 0 {
		topK = 3
	}
	terms := QueryTerms(question)

	out := make([]store.Hit, len(hits))
	copy(out, hits)
	for i := range out {
		out[i].Score = 0.7*out[i].Score + 0.3*termOverlap(terms, out[i].Content)
	}
	sortHitsByScore(out)
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// termOverlap is the fraction of query terms appearing in the content.
func termOverlap(terms []string, content string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	matched := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

// QueryAdvanced is the full advanced pipeline: multi-query retrieval,
// rerank, then cited generation.
func (p *Pipeline) QueryAdvanced(ctx context.Context, question string) (Answer, error) {
	hits, err := p.MultiQueryRetrieve(ctx, question)
	if err != nil {
		return Answer{}, err
	}
	if len(hits) == 0 {
		return Answer{
			Question: question,
			Text:     "I could not find anything relevant in the ingested documents.",
		}, nil
	}
	hits = Rerank(question, hits, p.cfg.RerankTopK)
	return p.answerFrom(ctx, question, hits)
}
