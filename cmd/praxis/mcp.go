package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"praxis/internal/config"
	"praxis/internal/logging"
	"praxis/internal/mcp"
)

var (
	mcpSSEAddr    string
	mcpServerName string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server and client operations",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the built-in task manager over MCP",
	Long: `Serves task tools (create, list, complete, stats) over MCP. By default
the server speaks JSON-RPC on stdin/stdout; --sse serves the SSE
transport on an HTTP address instead. Tasks persist in the store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		srv := mcp.NewTaskServer(st, version)
		if mcpSSEAddr == "" {
			return srv.ServeStdio(ctx)
		}

		mux := http.NewServeMux()
		mcp.NewSSEHandler(srv, "/message").Mount(mux, "/sse")
		httpSrv := &http.Server{Addr: mcpSSEAddr, Handler: mux}
		go func() {
			<-ctx.Done()
			_ = httpSrv.Close()
		}()
		logging.Get(logging.CategoryMCP).Infow("serving MCP over SSE", "addr", mcpSSEAddr)
		err = httpSrv.ListenAndServe()
		if err == http.ErrServerClosed || ctx.Err() != nil {
			return nil
		}
		return err
	},
}

var mcpToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List tools on a configured MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := connectConfiguredServer(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()

		tools, err := client.ListTools(cmd.Context())
		if err != nil {
			return err
		}
		for _, t := range tools {
			fmt.Printf("%s\t%s\n", t.Name, t.Description)
		}
		return nil
	},
}

var mcpCallCmd = &cobra.Command{
	Use:   "call TOOL [ARGS_JSON]",
	Short: "Call a tool on a configured MCP server",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		toolArgs := map[string]any{}
		if len(args) == 2 {
			if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
				return fmt.Errorf("parse args: %w", err)
			}
		}

		client, err := connectConfiguredServer(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()

		out, err := client.CallTool(cmd.Context(), args[0], toolArgs)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpSSEAddr, "sse", "", "serve SSE on this address instead of stdio")
	mcpToolsCmd.Flags().StringVar(&mcpServerName, "server", "", "configured server name (default: first enabled)")
	mcpCallCmd.Flags().StringVar(&mcpServerName, "server", "", "configured server name (default: first enabled)")

	mcpCmd.AddCommand(mcpServeCmd, mcpToolsCmd, mcpCallCmd)
}

// connectConfiguredServer connects to the named MCP server from the
// config, or the first enabled one when no name is given.
func connectConfiguredServer(ctx context.Context) (*mcp.Client, error) {
	var (
		name string
		srv  config.MCPServer
	)
	found := false
	for n, s := range cfg.MCP.Servers {
		if !s.Enabled {
			continue
		}
		if mcpServerName == "" || mcpServerName == n {
			name, srv, found = n, s, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("no enabled MCP server configured")
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
		return nil, fmt.Errorf("mcp server %s: %w", name, err)
	}

	client := mcp.NewClient("praxis", version, transport)
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("mcp server %s: %w", name, err)
	}
	return client, nil
}
