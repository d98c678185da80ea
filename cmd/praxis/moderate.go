package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"praxis/internal/moderation"
)

var moderateCmd = &cobra.Command{
	Use:   "moderate TEXT",
	Short: "Run content through the moderation pipeline",
	Long: `Checks language, toxicity, and sentiment, then prints the verdict.
Every decision is appended to an audit log next to the store.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content := strings.Join(args, " ")

		auditPath := filepath.Join(filepath.Dir(cfg.Store.Path), "moderation.jsonl")
		audit, err := moderation.OpenAuditLog(auditPath)
		if err != nil {
			return err
		}
		defer audit.Close()

		pipeline, err := moderation.NewPipeline(audit)
		if err != nil {
			return err
		}

		state, err := pipeline.Check(cmd.Context(), uuid.NewString(), content)
		if err != nil {
			return err
		}

		fmt.Printf("verdict:   %s\n", state.Verdict)
		fmt.Printf("language:  %s\n", state.Language)
		fmt.Printf("toxicity:  %.2f\n", state.Toxicity)
		fmt.Printf("sentiment: %+.2f\n", state.Sentiment)
		for _, reason := range state.Reasons {
			fmt.Println(faintStyle.Render("  " + reason))
		}
		return nil
	},
}
