package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"praxis/internal/rag"
)

var queryAdvanced bool

var ingestCmd = &cobra.Command{
	Use:   "ingest DIR",
	Short: "Chunk, embed, and index every document in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		client, err := newClient()
		if err != nil {
			return err
		}
		pipeline, err := newPipeline(st, client)
		if err != nil {
			return err
		}

		stats, err := pipeline.IngestDirectory(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("indexed %d documents (%d chunks)\n", stats.Documents, stats.Chunks)
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query QUESTION",
	Short: "Answer a question from the indexed documents",
	Long: `Retrieves the most relevant chunks and asks the model to answer using
only those chunks, citing its sources. --advanced enables multi-query
retrieval with reranking.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		client, err := newClient()
		if err != nil {
			return err
		}
		pipeline, err := newPipeline(st, client)
		if err != nil {
			return err
		}

		var answer rag.Answer
		if queryAdvanced {
			answer, err = pipeline.QueryAdvanced(cmd.Context(), question)
		} else {
			answer, err = pipeline.Query(cmd.Context(), question)
		}
		if err != nil {
			return err
		}

		fmt.Println(answer.Text)
		if len(answer.Sources) > 0 {
			fmt.Println()
			for _, src := range answer.Sources {
				fmt.Println(faintStyle.Render("  source: " + src))
			}
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().BoolVar(&queryAdvanced, "advanced", false, "multi-query retrieval with reranking")
}
