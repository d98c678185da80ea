package crew

import (
	"context"
	"errors"
	"fmt"

	"praxis/internal/graph"
)

// ErrAwaitingApproval is returned when a workflow has produced a draft and
// is paused until someone approves or rejects it.
var ErrAwaitingApproval = errors.New("crew: awaiting approval")

// Approver decides whether a paused draft may proceed. Implementations
// range from a terminal prompt to an HTTP callback.
type Approver interface {
	Approve(ctx context.Context, draft string) (approved bool, feedback string, err error)
}

// ApproverFunc adapts a function to the Approver interface.
type ApproverFunc func(ctx context.Context, draft string) (bool, string, error)

func (f ApproverFunc) Approve(ctx context.Context, draft string) (bool, string, error) {
	return f(ctx, draft)
}

// ApprovalState is the state carried through an approval workflow.
type ApprovalState struct {
	Task      string `json:"task"`
	Draft     string `json:"draft"`
	Feedback  string `json:"feedback,omitempty"`
	Approved  bool   `json:"approved"`
	Published bool   `json:"published"`
}

// ApprovalWorkflow drafts with a writer, pauses for approval, then
// publishes. Rejected drafts are revised with the feedback and pause
// again.
type ApprovalWorkflow struct {
	runner *graph.Runner[ApprovalState]
	cp     graph.Checkpointer[ApprovalState]
}

// NewApprovalWorkflow builds the workflow around a writer and a
// checkpointer. The run pauses before the publish step on every draft.
func NewApprovalWorkflow(writer *Member, cp graph.Checkpointer[ApprovalState]) (*ApprovalWorkflow, error) {
	draft := func(ctx context.Context, s ApprovalState) (ApprovalState, error) {
		prompt := "Task: " + s.Task
		if s.Feedback != "" {
			prompt = fmt.Sprintf("Task: %s\n\nYour previous draft:\n%s\n\nFeedback:\n%s\n\nRevise accordingly.",
				s.Task, s.Draft, s.Feedback)
		}
		out, err := writer.Ask(ctx, prompt)
		if err != nil {
			return s, err
		}
		s.Draft = out
		s.Approved = false
		return s, nil
	}

	publish := func(ctx context.Context, s ApprovalState) (ApprovalState, error) {
		s.Published = true
		return s, nil
	}

	g := graph.New[ApprovalState]().
		AddNode("draft", draft).
		AddNode("publish", publish).
		AddConditionalEdge("draft", func(s ApprovalState) string { return "publish" }).
		AddEdge("publish", graph.End).
		SetEntryPoint("draft")

	runner, err := g.Compile(
		graph.WithCheckpointer(cp),
		graph.WithInterruptBefore[ApprovalState]("publish"),
	)
	if err != nil {
		return nil, err
	}
	return &ApprovalWorkflow{runner: runner, cp: cp}, nil
}

// Start begins a run. It returns ErrAwaitingApproval with the draft state
// once the writer has produced a draft.
func (w *ApprovalWorkflow) Start(ctx context.Context, threadID, task string) (ApprovalState, error) {
	state, err := w.runner.Run(ctx, threadID, ApprovalState{Task: task})
	if errors.Is(err, graph.ErrInterrupted) {
		return state, ErrAwaitingApproval
	}
	return state, err
}

// Decide applies an approval decision to a paused thread. Approved drafts
// publish and the run completes. Rejected drafts go back to the writer
// with the feedback and pause again with a new draft.
func (w *ApprovalWorkflow) Decide(ctx context.Context, threadID string, approved bool, feedback string) (ApprovalState, error) {
	if approved {
		state, err := w.runner.Resume(ctx, threadID)
		if errors.Is(err, graph.ErrInterrupted) {
			return state, ErrAwaitingApproval
		}
		if err != nil {
			return state, err
		}
		state.Approved = true
		return state, nil
	}

	// Rejection: restart the thread at the draft node with feedback.
	_, state, err := w.cp.Load(ctx, threadID)
	if err != nil {
		return state, err
	}
	state.Feedback = feedback
	newState, err := w.runner.Run(ctx, threadID, state)
	if errors.Is(err, graph.ErrInterrupted) {
		return newState, ErrAwaitingApproval
	}
	return newState, err
}

// RunWithApprover drives a thread to completion, routing every pause
// through the approver.
func (w *ApprovalWorkflow) RunWithApprover(ctx context.Context, threadID, task string, approver Approver, maxRounds int) (ApprovalState, error) {
	if maxRounds <= 0 {
		maxRounds = 3
	}
	state, err := w.Start(ctx, threadID, task)
	for round := 0; round < maxRounds; round++ {
		if err == nil {
			return state, nil
		}
		if !errors.Is(err, ErrAwaitingApproval) {
			return state, err
		}
		approved, feedback, aerr := approver.Approve(ctx, state.Draft)
		if aerr != nil {
			return state, fmt.Errorf("approver: %w", aerr)
		}
		state, err = w.Decide(ctx, threadID, approved, feedback)
	}
	if errors.Is(err, ErrAwaitingApproval) {
		return state, fmt.Errorf("crew: no approval after %d rounds", maxRounds)
	}
	return state, err
}
