package crew

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"praxis/internal/llm"
	"praxis/internal/logging"
)

// Opinion is one member's answer in a consultation.
type Opinion struct {
	Member string
	Text   string
}

// Consult asks every member the same question in parallel. Order of the
// returned opinions matches the member order.
func Consult(ctx context.Context, members []*Member, question string) ([]Opinion, error) {
	timer := logging.StartTimer(logging.CategoryCrew, "consult")
	defer timer.Stop()

	opinions := make([]Opinion, len(members))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range members {
		g.Go(func() error {
			out, err := m.Ask(gctx, question)
			if err != nil {
				return err
			}
			mu.Lock()
			opinions[i] = Opinion{Member: m.Name, Text: out}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return opinions, nil
}

// Synthesize merges a set of opinions into one answer using the given
// client as the moderator.
func Synthesize(ctx context.Context, client llm.Client, question string, opinions []Opinion) (string, error) {
	var b strings.Builder
	for _, op := range opinions {
		fmt.Fprintf(&b, "%s says:\n%s\n\n", op.Member, op.Text)
	}
	out, err := client.CompleteWithSystem(ctx,
		"Synthesize the expert opinions below into one balanced answer. Note where they disagree.",
		fmt.Sprintf("Question: %s\n\n%s", question, b.String()))
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	return strings.TrimSpace(out), nil
}
