// Package agent implements a reason-and-act loop: the model alternates
// between thinking, calling tools, and observing results until it commits
// to a final answer.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"praxis/internal/llm"
	"praxis/internal/logging"
	"praxis/internal/tools"
)

const systemPromptTemplate = `Answer the question using the tools below. You do not know the current date or have any knowledge beyond the tools.

Available tools:
%s

Use exactly this format:

Thought: reason about what to do next
Action: the tool name, one of [%s]
Action Input: the tool arguments as a JSON object
Observation: the tool result (this is filled in for you)

Repeat Thought/Action/Action Input/Observation as needed. When you know the answer, finish with:

Thought: I now know the answer
Final Answer: the answer to the question`

// Step records one iteration of the loop.
type Step struct {
	Thought     string
	Action      string
	ActionInput string
	Observation string
}

// Result is the outcome of a run.
type Result struct {
	Answer     string
	Steps      []Step
	Iterations int
}

// Agent drives the reasoning loop over a tool registry.
type Agent struct {
	client        llm.Client
	registry      *tools.Registry
	maxIterations int
}

// New creates an agent. maxIterations <= 0 defaults to 10.
func New(client llm.Client, registry *tools.Registry, maxIterations int) *Agent {
	if maxIterations <= 0 {
		maxIterations = 10
	}
	return &Agent{client: client, registry: registry, maxIterations: maxIterations}
}

// Run answers the question, calling tools as the model requests them.
func (a *Agent) Run(ctx context.Context, question string) (Result, error) {
	timer := logging.StartTimer(logging.CategoryAgent, "Run")
	defer timer.Stop()
	log := logging.Get(logging.CategoryAgent)

	system := fmt.Sprintf(systemPromptTemplate,
		a.registry.RenderPrompt(), strings.Join(a.registry.Names(), ", "))

	var transcript strings.Builder
	transcript.WriteString("Question: " + question + "\n")

	var result Result
	for i := 0; i < a.maxIterations; i++ {
		result.Iterations = i + 1

		out, err := a.client.CompleteWithSystem(ctx, system, transcript.String())
		if err != nil {
			return result, fmt.Errorf("iteration %d: %w", i+1, err)
		}
		out = truncateAtObservation(out)

		if answer, ok := parseFinalAnswer(out); ok {
			result.Answer = answer
			result.Steps = append(result.Steps, Step{Thought: parseThought(out)})
			log.Infow("run complete", "iterations", result.Iterations, "steps", len(result.Steps))
			return result, nil
		}

		step := Step{Thought: parseThought(out)}
		action, input, parseErr := parseAction(out)
		if parseErr != nil {
			// Feed the format error back as an observation so the model
			// can correct itself on the next pass.
			step.Observation = "Error: " + parseErr.Error()
			result.Steps = append(result.Steps, step)
			transcript.WriteString(out + "\nObservation: " + step.Observation + "\n")
			continue
		}
		step.Action = action
		step.ActionInput = input

		obs := a.callTool(ctx, action, input)
		step.Observation = obs
		result.Steps = append(result.Steps, step)

		log.Debugw("tool call", "action", action, "input", input)
		transcript.WriteString(out + "\nObservation: " + obs + "\n")
	}

	return result, fmt.Errorf("no final answer after %d iterations", a.maxIterations)
}

// callTool executes the tool and renders any failure as an observation
// instead of aborting the loop.
func (a *Agent) callTool(ctx context.Context, action, input string) string {
	args, err := a.parseArgs(action, input)
	if err != nil {
		return "Error: " + err.Error()
	}
	out, err := a.registry.Call(ctx, action, args)
	if err != nil {
		return "Error: " + err.Error()
	}
	return out
}

// parseArgs decodes the action input. A JSON object is used as-is; a bare
// string is bound to the tool's single required argument when it has one.
func (a *Agent) parseArgs(action, input string) (map[string]any, error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "{") {
		var args map[string]any
		if err := json.Unmarshal([]byte(input), &args); err != nil {
			return nil, fmt.Errorf("action input is not valid JSON: %v", err)
		}
		return args, nil
	}

	tool, err := a.registry.Get(action)
	if err != nil {
		return nil, err
	}
	if len(tool.Schema.Required) == 1 {
		return map[string]any{tool.Schema.Required[0]: strings.Trim(input, `"`)}, nil
	}
	if input == "" && len(tool.Schema.Required) == 0 {
		return map[string]any{}, nil
	}
	return nil, fmt.Errorf("action input must be a JSON object with keys %v", tool.Schema.Required)
}

// truncateAtObservation drops anything the model hallucinated after an
// Observation marker. Observations come from tools, never the model.
func truncateAtObservation(out string) string {
	if idx := strings.Index(out, "\nObservation:"); idx >= 0 {
		return out[:idx]
	}
	return out
}

func parseFinalAnswer(out string) (string, bool) {
	idx := strings.Index(out, "Final Answer:")
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(out[idx+len("Final Answer:"):]), true
}

func parseThought(out string) string {
	idx := strings.Index(out, "Thought:")
	if idx < 0 {
		return ""
	}
	rest := out[idx+len("Thought:"):]
	if end := strings.IndexAny(rest, "\n"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// parseAction extracts the Action and Action Input lines.
func parseAction(out string) (action, input string, err error) {
	actionIdx := strings.Index(out, "Action:")
	if actionIdx < 0 {
		return "", "", fmt.Errorf("response has neither an Action nor a Final Answer; follow the Thought/Action/Action Input format")
	}
	rest := out[actionIdx+len("Action:"):]

	inputIdx := strings.Index(rest, "Action Input:")
	if inputIdx < 0 {
		return "", "", fmt.Errorf("Action without Action Input; provide 'Action Input:' on the next line")
	}

	action = strings.TrimSpace(rest[:inputIdx])
	action = strings.Trim(action, "`\"")
	input = strings.TrimSpace(rest[inputIdx+len("Action Input:"):])
	// Only take the first line block of the input; later Thought lines
	// belong to the next turn.
	if idx := strings.Index(input, "\nThought:"); idx >= 0 {
		input = strings.TrimSpace(input[:idx])
	}
	if action == "" {
		return "", "", fmt.Errorf("empty Action; name one of the available tools")
	}
	return action, input, nil
}
