// Package moderation screens user-submitted text through a staged
// pipeline: language check, toxicity scan, sentiment scoring, then a
// verdict. Every verdict is appended to a JSONL audit log.
package moderation

import (
	"context"
	"strings"
	"time"

	"praxis/internal/graph"
	"praxis/internal/logging"
)

// Verdict is the pipeline outcome for one piece of content.
type Verdict string

const (
	// VerdictApproved means the content is safe to publish.
	VerdictApproved Verdict = "approved"

	// VerdictRejected means the content violates policy.
	VerdictRejected Verdict = "rejected"

	// VerdictReview means a human should look at it.
	VerdictReview Verdict = "review"
)

// State carries a submission through the pipeline stages.
type State struct {
	ContentID string    `json:"content_id"`
	Content   string    `json:"content"`
	Language  string    `json:"language"`
	Toxicity  float64   `json:"toxicity"`
	Sentiment float64   `json:"sentiment"`
	Verdict   Verdict   `json:"verdict"`
	Reasons   []string  `json:"reasons,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Pipeline is a compiled moderation graph.
type Pipeline struct {
	runner *graph.Runner[State]
	audit  *AuditLog
}

// Thresholds past which content is rejected outright or flagged.
const (
	rejectToxicity  = 0.5
	reviewToxicity  = 0.2
	reviewSentiment = -0.5
)

// NewPipeline builds the moderation graph. audit may be nil to skip
// logging.
func NewPipeline(audit *AuditLog) (*Pipeline, error) {
	g := graph.New[State]().
		AddNode("language", checkLanguage).
		AddNode("toxicity", scoreToxicity).
		AddNode("sentiment", scoreSentiment).
		AddNode("decide", decide).
		AddEdge("language", "toxicity").
		AddEdge("toxicity", "sentiment").
		AddEdge("sentiment", "decide").
		AddEdge("decide", graph.End).
		SetEntryPoint("language")

	runner, err := g.Compile()
	if err != nil {
		return nil, err
	}
	return &Pipeline{runner: runner, audit: audit}, nil
}

// Check runs one submission through the pipeline and logs the verdict.
func (p *Pipeline) Check(ctx context.Context, contentID, content string) (State, error) {
	state, err := p.runner.Run(ctx, contentID, State{
		ContentID: contentID,
		Content:   content,
	})
	if err != nil {
		return state, err
	}
	state.CheckedAt = time.Now().UTC()

	log := logging.Get(logging.CategoryModeration)
	log.Infow("content checked", "id", contentID, "verdict", state.Verdict,
		"toxicity", state.Toxicity, "sentiment", state.Sentiment)

	if p.audit != nil {
		if err := p.audit.Append(state); err != nil {
			log.Warnw("audit append failed", "id", contentID, "err", err)
		}
	}
	return state, nil
}

// checkLanguage is a heuristic: content must be mostly ASCII letters to be
// treated as English; anything else goes to human review.
func checkLanguage(ctx context.Context, s State) (State, error) {
	letters, ascii := 0, 0
	for _, r := range s.Content {
		if r == ' ' || r == '\n' || r == '\t' {
			continue
		}
		letters++
		if r < 128 {
			ascii++
		}
	}
	if letters == 0 {
		s.Language = "unknown"
		s.Reasons = append(s.Reasons, "empty content")
		return s, nil
	}
	if float64(ascii)/float64(letters) >= 0.9 {
		s.Language = "en"
	} else {
		s.Language = "unknown"
		s.Reasons = append(s.Reasons, "non-English content")
	}
	return s, nil
}

// toxicTerms and their weights. A real deployment would call a
// classification model; the lexicon keeps the pipeline self-contained.
var toxicTerms = map[string]float64{
	"hate":    0.4,
	"stupid":  0.3,
	"idiot":   0.4,
	"kill":    0.5,
	"garbage": 0.2,
	"trash":   0.2,
	"scam":    0.3,
	"awful":   0.2,
}

func scoreToxicity(ctx context.Context, s State) (State, error) {
	words := strings.Fields(strings.ToLower(s.Content))
	var score float64
	for _, w := range words {
		w = strings.Trim(w, ".,!?\"'")
		if weight, ok := toxicTerms[w]; ok {
			score += weight
		}
	}
	if score > 1 {
		score = 1
	}
	s.Toxicity = score
	if score >= rejectToxicity {
		s.Reasons = append(s.Reasons, "toxic language")
	}
	return s, nil
}

var sentimentLexicon = map[string]float64{
	"great": 1, "good": 1, "love": 1, "excellent": 1, "amazing": 1,
	"helpful": 1, "thanks": 1, "wonderful": 1,
	"bad": -1, "terrible": -1, "awful": -1, "hate": -1, "worst": -1,
	"broken": -1, "useless": -1, "disappointed": -1,
}

func scoreSentiment(ctx context.Context, s State) (State, error) {
	words := strings.Fields(strings.ToLower(s.Content))
	var sum float64
	var hits int
	for _, w := range words {
		w = strings.Trim(w, ".,!?\"'")
		if v, ok := sentimentLexicon[w]; ok {
			sum += v
			hits++
		}
	}
	if hits > 0 {
		s.Sentiment = sum / float64(hits)
	}
	return s, nil
}

func decide(ctx context.Context, s State) (State, error) {
	switch {
	case s.Toxicity >= rejectToxicity:
		s.Verdict = VerdictRejected
	case s.Language != "en",
		s.Toxicity >= reviewToxicity,
		s.Sentiment <= reviewSentiment:
		s.Verdict = VerdictReview
		if s.Sentiment <= reviewSentiment {
			s.Reasons = append(s.Reasons, "strongly negative sentiment")
		}
	default:
		s.Verdict = VerdictApproved
	}
	return s, nil
}
