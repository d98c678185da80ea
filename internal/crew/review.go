package crew

import (
	"context"
	"fmt"
	"strings"

	"praxis/internal/logging"
)

// approvedMarker is what the critic must lead with to pass the draft.
const approvedMarker = "APPROVED"

// Revision records one pass of the critique loop.
type Revision struct {
	Draft    string
	Critique string
	Approved bool
}

// ReviewLoop alternates a writer and a critic until the critic approves
// or the revision budget runs out.
type ReviewLoop struct {
	Writer       *Member
	Critic       *Member
	MaxRevisions int

	// Check, when set, gates the draft before the critic sees it. A
	// failing check is fed back to the writer as reviewer feedback.
	// Use codegen.CheckText for code artifacts.
	Check func(draft string) error
}

// ReviewResult is the outcome of a review loop.
type ReviewResult struct {
	Final     string
	Revisions []Revision
	Approved  bool
}

// Run produces a draft, has the critic judge it, and feeds the critique
// back to the writer until the critic answers APPROVED.
func (l *ReviewLoop) Run(ctx context.Context, task string) (ReviewResult, error) {
	maxRevisions := l.MaxRevisions
	if maxRevisions <= 0 {
		maxRevisions = 3
	}
	timer := logging.StartTimer(logging.CategoryCrew, "review")
	defer timer.Stop()
	log := logging.Get(logging.CategoryCrew)

	var result ReviewResult
	prompt := "Task: " + task
	for i := 0; i <= maxRevisions; i++ {
		draft, err := l.Writer.Ask(ctx, prompt)
		if err != nil {
			return result, err
		}

		if l.Check != nil {
			if checkErr := l.Check(draft); checkErr != nil {
				result.Revisions = append(result.Revisions, Revision{
					Draft:    draft,
					Critique: "Structural check failed: " + checkErr.Error(),
				})
				result.Final = draft
				log.Debugw("draft failed structural check", "revision", i, "err", checkErr)
				prompt = fmt.Sprintf("Task: %s\n\nYour previous draft:\n%s\n\nIt failed a structural check: %s\n\nFix the problem and resubmit.",
					task, draft, checkErr)
				continue
			}
		}

		critique, err := l.Critic.Ask(ctx, fmt.Sprintf(
			"Task: %s\n\nDraft:\n%s\n\nIf the draft fully satisfies the task, reply with the single word %s. Otherwise list the problems to fix.",
			task, draft, approvedMarker))
		if err != nil {
			return result, err
		}

		approved := strings.HasPrefix(strings.TrimSpace(critique), approvedMarker)
		result.Revisions = append(result.Revisions, Revision{
			Draft:    draft,
			Critique: critique,
			Approved: approved,
		})
		result.Final = draft

		if approved {
			result.Approved = true
			log.Infow("draft approved", "revisions", i)
			return result, nil
		}
		log.Debugw("draft rejected", "revision", i)
		prompt = fmt.Sprintf("Task: %s\n\nYour previous draft:\n%s\n\nReviewer feedback:\n%s\n\nRevise the draft to address every point.",
			task, draft, critique)
	}

	// Out of budget: return the last draft, unapproved.
	log.Warnw("revision budget exhausted", "revisions", maxRevisions)
	return result, nil
}
