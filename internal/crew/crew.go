// Package crew coordinates multiple specialized agents on one task:
// sequential handoff pipelines, critique-and-revise loops, parallel
// consultations, and approval gates that pause for a human.
package crew

import (
	"context"
	"fmt"
	"strings"

	"praxis/internal/llm"
	"praxis/internal/logging"
)

// Member is one specialist on the crew. The system prompt defines its
// role; every request goes through it.
type Member struct {
	Name   string
	Role   string
	System string
	Client llm.Client
}

// Ask sends a prompt to the member in role.
func (m *Member) Ask(ctx context.Context, prompt string) (string, error) {
	out, err := m.Client.CompleteWithSystem(ctx, m.System, prompt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", m.Name, err)
	}
	return strings.TrimSpace(out), nil
}

// Handoff records one member's contribution in a pipeline run.
type Handoff struct {
	Member string
	Role   string
	Output string
}

// Pipeline runs members in order, feeding each the task plus everything
// produced so far.
type Pipeline struct {
	members []*Member
}

// NewPipeline creates a sequential pipeline.
func NewPipeline(members ...*Member) *Pipeline {
	return &Pipeline{members: members}
}

// Run executes the pipeline. The returned transcript has one handoff per
// member; the last entry is the final deliverable.
func (p *Pipeline) Run(ctx context.Context, task string) ([]Handoff, error) {
	if len(p.members) == 0 {
		return nil, fmt.Errorf("pipeline has no members")
	}
	timer := logging.StartTimer(logging.CategoryCrew, "pipeline")
	defer timer.Stop()
	log := logging.Get(logging.CategoryCrew)

	var transcript []Handoff
	prompt := "Task: " + task
	for _, m := range p.members {
		out, err := m.Ask(ctx, prompt)
		if err != nil {
			return transcript, err
		}
		log.Debugw("handoff", "member", m.Name, "role", m.Role)
		transcript = append(transcript, Handoff{Member: m.Name, Role: m.Role, Output: out})
		prompt = fmt.Sprintf("Task: %s\n\nWork so far from %s (%s):\n%s",
			task, m.Name, m.Role, out)
	}
	return transcript, nil
}
