package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"praxis/internal/llm"
	"praxis/internal/memory"
)

var chatSessionID string

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat with persistent memory",
	Long: `Starts a REPL backed by the configured model. Conversation history is
persisted per session; pass --session to resume one. Inside the REPL,
/prefs shows extracted preferences and /quit exits.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "session id to resume (default: new session)")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	client, err := newClient()
	if err != nil {
		return err
	}

	session, err := memory.NewSession(ctx, st, chatSessionID, cfg.Memory.WindowSize)
	if err != nil {
		return err
	}

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)

	fmt.Printf("praxis chat (%s) - session %s\n", client.Name(), session.ID)
	fmt.Println(faintStyle.Render("/prefs shows preferences, /quit exits"))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("you> "))
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch input {
		case "/quit", "/exit":
			return nil
		case "/prefs":
			prefs, err := session.Preferences(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			if len(prefs) == 0 {
				fmt.Println(faintStyle.Render("no preferences remembered yet"))
				continue
			}
			for k, v := range prefs {
				fmt.Printf("  %s: %s\n", k, v)
			}
			continue
		}

		messages := append(session.History(), llm.Message{Role: llm.RoleUser, Content: input})
		reply, err := client.Chat(ctx, messages)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		if err := session.Record(ctx, input, reply.Content); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		fmt.Print(renderMarkdown(renderer, reply.Content))
	}
	return scanner.Err()
}

func renderMarkdown(r *glamour.TermRenderer, text string) string {
	if r == nil {
		return text + "\n"
	}
	out, err := r.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}
