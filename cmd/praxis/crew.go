package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"praxis/internal/codegen"
	"praxis/internal/crew"
	"praxis/internal/graph"
	"praxis/internal/llm"
)

var (
	crewReview  bool
	crewApprove bool
)

var crewCmd = &cobra.Command{
	Use:   "crew FEATURE",
	Short: "Run a PM/developer/QA crew over a feature request",
	Long: `Hands the feature through a product manager, a developer, and a QA
engineer in sequence, each building on the previous member's output.
--review instead runs a writer/critic loop with structural code checks;
--approve pauses before publishing and asks you to approve the draft.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		task := strings.Join(args, " ")

		client, err := newClient()
		if err != nil {
			return err
		}

		switch {
		case crewReview:
			return runReviewCrew(cmd, client, task)
		case crewApprove:
			return runApprovalCrew(cmd, client, task)
		}

		pm := &crew.Member{
			Name: "pm", Role: "product manager", Client: client,
			System: "You are a product manager. Turn feature requests into concise, testable requirements.",
		}
		dev := &crew.Member{
			Name: "dev", Role: "developer", Client: client,
			System: "You are a senior developer. Implement the requirements you are given, briefly noting key decisions.",
		}
		qa := &crew.Member{
			Name: "qa", Role: "QA engineer", Client: client,
			System: "You are a QA engineer. Review the implementation against the requirements and report gaps.",
		}

		transcript, err := crew.NewPipeline(pm, dev, qa).Run(ctx, task)
		if err != nil {
			return err
		}
		for _, h := range transcript {
			fmt.Printf("--- %s (%s) ---\n%s\n\n", h.Member, h.Role, h.Output)
		}
		return nil
	},
}

func init() {
	crewCmd.Flags().BoolVar(&crewReview, "review", false, "writer/critic loop with code checks")
	crewCmd.Flags().BoolVar(&crewApprove, "approve", false, "pause for human approval before publishing")
}

func runReviewCrew(cmd *cobra.Command, client llm.Client, task string) error {
	writer := &crew.Member{
		Name: "writer", Role: "developer", Client: client,
		System: "You write code. Respond with one fenced code block and nothing else.",
	}
	critic := &crew.Member{
		Name: "critic", Role: "code reviewer", Client: client,
		System: "You review code against the stated task, strictly.",
	}

	loop := &crew.ReviewLoop{
		Writer: writer,
		Critic: critic,
		Check:  codegen.CheckText,
	}
	result, err := loop.Run(cmd.Context(), task)
	if err != nil {
		return err
	}

	fmt.Println(result.Final)
	if result.Approved {
		fmt.Println(faintStyle.Render(fmt.Sprintf("approved after %d revision(s)", len(result.Revisions))))
	} else {
		fmt.Println(faintStyle.Render("revision budget exhausted; output is unapproved"))
	}
	return nil
}

func runApprovalCrew(cmd *cobra.Command, client llm.Client, task string) error {
	writer := &crew.Member{
		Name: "writer", Role: "writer", Client: client,
		System: "You draft short, publishable text for the given task.",
	}

	workflow, err := crew.NewApprovalWorkflow(writer, graph.NewMemoryCheckpointer[crew.ApprovalState]())
	if err != nil {
		return err
	}

	final, err := workflow.RunWithApprover(cmd.Context(), uuid.NewString(), task, consoleApprover{}, 0)
	if err != nil {
		return err
	}
	fmt.Println(final.Draft)
	return nil
}

// consoleApprover asks on stdin.
type consoleApprover struct{}

func (consoleApprover) Approve(ctx context.Context, draft string) (bool, string, error) {
	fmt.Println("--- draft ---")
	fmt.Println(draft)
	fmt.Print("approve? [y/N or feedback]: ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false, "", scanner.Err()
	}
	input := strings.TrimSpace(scanner.Text())
	switch strings.ToLower(input) {
	case "y", "yes":
		return true, "", nil
	case "", "n", "no":
		return false, "rejected without feedback", nil
	}
	return false, input, nil
}
