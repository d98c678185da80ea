package graph

import (
	"context"
	"errors"
	"fmt"

	"praxis/internal/logging"
)

const defaultMaxSteps = 50

// ErrInterrupted is returned by Run and Resume when the graph pauses at an
// interrupt point. The checkpoint holds the state; call Resume to go on.
var ErrInterrupted = errors.New("graph: interrupted")

// ErrNoCheckpoint is returned by Resume when the thread has nothing saved.
var ErrNoCheckpoint = errors.New("graph: no checkpoint for thread")

// Option configures a compiled runner.
type Option[S any] func(*Runner[S])

// WithCheckpointer persists state between steps so runs can be interrupted
// and resumed.
func WithCheckpointer[S any](cp Checkpointer[S]) Option[S] {
	return func(r *Runner[S]) { r.checkpointer = cp }
}

// WithInterruptBefore pauses the run before the named nodes execute.
// Requires a checkpointer.
func WithInterruptBefore[S any](nodes ...string) Option[S] {
	return func(r *Runner[S]) {
		if r.interruptBefore == nil {
			r.interruptBefore = make(map[string]bool)
		}
		for _, n := range nodes {
			r.interruptBefore[n] = true
		}
	}
}

// WithMaxSteps bounds the number of node executions per run.
func WithMaxSteps[S any](n int) Option[S] {
	return func(r *Runner[S]) {
		if n > 0 {
			r.maxSteps = n
		}
	}
}

// Runner executes a compiled graph.
type Runner[S any] struct {
	graph           *StateGraph[S]
	checkpointer    Checkpointer[S]
	interruptBefore map[string]bool
	maxSteps        int
}

// Run starts a fresh run for the thread at the entry point. On
// ErrInterrupted the returned state is the state at the pause point.
func (r *Runner[S]) Run(ctx context.Context, threadID string, initial S) (S, error) {
	return r.loop(ctx, threadID, r.graph.entry, initial, true)
}

// Resume continues an interrupted thread from its checkpoint. The node the
// run paused before executes without re-interrupting.
func (r *Runner[S]) Resume(ctx context.Context, threadID string) (S, error) {
	var zero S
	if r.checkpointer == nil {
		return zero, fmt.Errorf("graph: resume requires a checkpointer")
	}
	node, state, err := r.checkpointer.Load(ctx, threadID)
	if err != nil {
		return zero, err
	}
	return r.loop(ctx, threadID, node, state, false)
}

// ResumeWith continues an interrupted thread with an updated state, e.g.
// after a human edited it.
func (r *Runner[S]) ResumeWith(ctx context.Context, threadID string, state S) (S, error) {
	var zero S
	if r.checkpointer == nil {
		return zero, fmt.Errorf("graph: resume requires a checkpointer")
	}
	node, _, err := r.checkpointer.Load(ctx, threadID)
	if err != nil {
		return zero, err
	}
	return r.loop(ctx, threadID, node, state, false)
}

func (r *Runner[S]) loop(ctx context.Context, threadID, node string, state S, interruptFirst bool) (S, error) {
	log := logging.Get(logging.CategoryGraph)
	timer := logging.StartTimer(logging.CategoryGraph, "run")
	defer timer.Stop()

	first := true
	for step := 0; step < r.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		if r.interruptBefore[node] && (interruptFirst || !first) {
			if r.checkpointer == nil {
				return state, fmt.Errorf("graph: interrupt before %q requires a checkpointer", node)
			}
			if err := r.checkpointer.Save(ctx, threadID, node, state); err != nil {
				return state, fmt.Errorf("save checkpoint: %w", err)
			}
			log.Infow("run interrupted", "thread", threadID, "before", node)
			return state, ErrInterrupted
		}
		first = false

		fn := r.graph.nodes[node]
		log.Debugw("node start", "thread", threadID, "node", node, "step", step)
		newState, err := fn(ctx, state)
		if err != nil {
			return state, fmt.Errorf("node %q: %w", node, err)
		}
		state = newState

		next, err := r.graph.next(node, state)
		if err != nil {
			return state, err
		}

		if next == End {
			if r.checkpointer != nil {
				if err := r.checkpointer.Delete(ctx, threadID); err != nil {
					log.Warnw("delete checkpoint", "thread", threadID, "err", err)
				}
			}
			return state, nil
		}
		node = next
	}
	return state, fmt.Errorf("graph: exceeded %d steps without reaching the end", r.maxSteps)
}
