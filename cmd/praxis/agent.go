package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"praxis/internal/agent"
	"praxis/internal/llm"
	"praxis/internal/logging"
	"praxis/internal/mcp"
	"praxis/internal/tools"
)

var agentShowSteps bool

var agentCmd = &cobra.Command{
	Use:   "agent QUESTION",
	Short: "Answer a question using tools (calculator, clock, files, web)",
	Long: `Runs a reasoning loop that can call tools to answer the question.
Enabled MCP servers from the config are connected and their tools made
available alongside the builtins.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		question := strings.Join(args, " ")

		client, err := newClient()
		if err != nil {
			return err
		}

		registry := tools.DefaultRegistry(cfg.Agent.Workspace)
		closers, err := bridgeMCPServers(ctx, registry)
		if err != nil {
			return err
		}
		defer func() {
			for _, c := range closers {
				_ = c.Close()
			}
		}()

		a := agent.New(client, registry, cfg.Agent.MaxIterations)
		result, err := a.Run(ctx, question)
		if err != nil {
			return err
		}

		if agentShowSteps {
			for i, step := range result.Steps {
				fmt.Printf("step %d: %s(%s)\n", i+1, step.Action, step.ActionInput)
				fmt.Println(faintStyle.Render("  " + step.Observation))
			}
			fmt.Println()
		}
		fmt.Println(result.Answer)
		return nil
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe IMAGE [PROMPT]",
	Short: "Ask the model about an image",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		vision, ok := client.(llm.VisionClient)
		if !ok {
			return fmt.Errorf("provider %s does not support image input", client.Name())
		}

		prompt := "Describe this image."
		if len(args) > 1 {
			prompt = strings.Join(args[1:], " ")
		}
		answer, err := vision.DescribeImage(cmd.Context(), prompt, args[0])
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil
	},
}

func init() {
	agentCmd.Flags().BoolVar(&agentShowSteps, "steps", false, "print each tool call and observation")
}

// bridgeMCPServers connects every enabled MCP server from the config and
// registers its tools. Callers must close the returned clients.
func bridgeMCPServers(ctx context.Context, registry *tools.Registry) ([]*mcp.Client, error) {
	log := logging.Get(logging.CategoryMCP)
	var clients []*mcp.Client
	for name, srv := range cfg.MCP.Servers {
		if !srv.Enabled {
			continue
		}

		var (
			transport mcp.Transport
			err       error
		)
		switch srv.Protocol {
		case "stdio", "":
			transport, err = mcp.NewStdioTransport(srv.Command, srv.Args...)
		case "sse":
			transport, err = mcp.NewSSETransport(ctx, http.DefaultClient, srv.BaseURL)
		default:
			err = fmt.Errorf("unknown protocol %q", srv.Protocol)
		}
		if err != nil {
			closeAll(clients)
			return nil, fmt.Errorf("mcp server %s: %w", name, err)
		}

		client := mcp.NewClient("praxis", version, transport)
		if err := client.Connect(ctx); err != nil {
			closeAll(clients)
			return nil, fmt.Errorf("mcp server %s: %w", name, err)
		}
		if _, err := mcp.BridgeTools(ctx, client, registry); err != nil {
			closeAll(clients)
			_ = client.Close()
			return nil, fmt.Errorf("mcp server %s: %w", name, err)
		}
		log.Infow("bridged MCP server", "name", name, "protocol", srv.Protocol)
		clients = append(clients, client)
	}
	return clients, nil
}

func closeAll(clients []*mcp.Client) {
	for _, c := range clients {
		_ = c.Close()
	}
}
