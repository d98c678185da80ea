// praxis is a CLI for local LLM workflows: chat with memory, document
// retrieval, tool-calling agents, moderation graphs, crews, an MCP
// server/client, and an HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"praxis/internal/config"
	"praxis/internal/embedding"
	"praxis/internal/llm"
	"praxis/internal/logging"
	"praxis/internal/rag"
	"praxis/internal/store"
)

// version is stamped at build time with -ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "praxis",
	Short: "praxis - local LLM workflows from the command line",
	Long: `praxis wires a local Ollama (or Gemini/OpenAI) model into practical
workflows: conversational memory, retrieval over your documents, a
tool-calling agent, content moderation, multi-agent crews, MCP, and an
HTTP API. State lives in a single SQLite file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		opts := logging.Options{
			Level:   cfg.Logging.Level,
			File:    cfg.Logging.File,
			Console: verbose,
		}
		if verbose {
			opts.Level = "debug"
		}
		return logging.Initialize(opts)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the praxis version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("praxis %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./praxis.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(moderateCmd)
	rootCmd.AddCommand(crewCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}

// openStore opens the configured SQLite store, creating parent dirs.
func openStore() (*store.Store, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Store.Path, err)
	}
	return st, nil
}

func newClient() (llm.Client, error) {
	client, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	return client, nil
}

func newPipeline(st *store.Store, client llm.Client) (*rag.Pipeline, error) {
	engine, err := embedding.NewEngine(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embedding engine: %w", err)
	}
	return rag.NewPipeline(cfg.RAG, engine, st, client), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
