package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxFetchBytes = 512 * 1024

// NewWebFetch returns a tool that fetches a URL and returns the body text,
// capped at maxFetchBytes.
func NewWebFetch(client *http.Client) *Tool {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Tool{
		Name:        "web_fetch",
		Description: "Fetch the contents of a URL over HTTP or HTTPS.",
		Schema: ToolSchema{
			Required: []string{"url"},
			Properties: map[string]Property{
				"url": {Type: "string", Description: "The URL to fetch."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			raw, _ := StringArg(args, "url")
			u, err := url.Parse(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				return "", fmt.Errorf("invalid URL: %s", raw)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
			if err != nil {
				return "", err
			}
			req.Header.Set("User-Agent", "praxis/1.0")

			resp, err := client.Do(req)
			if err != nil {
				return "", fmt.Errorf("fetch %s: %w", raw, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("fetch %s: status %d", raw, resp.StatusCode)
			}

			body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
			if err != nil {
				return "", fmt.Errorf("fetch %s: %w", raw, err)
			}
			return string(body), nil
		},
	}
}

// wikipediaSummary mirrors the fields we use from the REST summary endpoint.
type wikipediaSummary struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	Type    string `json:"type"`
}

// offlineSnippets answers a few common topics when Wikipedia is
// unreachable, so the tool degrades instead of failing the whole agent
// step.
var offlineSnippets = map[string]string{
	"go":               "Go: Go is a statically typed, compiled programming language designed at Google, known for built-in concurrency support.",
	"golang":           "Go: Go is a statically typed, compiled programming language designed at Google, known for built-in concurrency support.",
	"python":           "Python: Python is a high-level, general-purpose programming language emphasizing code readability.",
	"alan turing":      "Alan Turing: Alan Turing was an English mathematician and computer scientist, widely considered the father of theoretical computer science.",
	"machine learning": "Machine learning: Machine learning is a field of artificial intelligence concerned with algorithms that improve through experience.",
	"linux":            "Linux: Linux is a family of open-source Unix-like operating systems based on the Linux kernel.",
}

func offlineLookup(topic string) (string, bool) {
	snippet, ok := offlineSnippets[strings.ToLower(strings.TrimSpace(topic))]
	return snippet, ok
}

// NewWikipedia returns a tool that looks up a topic summary via the
// Wikipedia REST API. baseURL is overridable for tests; empty means the
// public endpoint.
func NewWikipedia(client *http.Client, baseURL string) *Tool {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if baseURL == "" {
		baseURL = "https://en.wikipedia.org/api/rest_v1"
	}
	return &Tool{
		Name:        "wikipedia",
		Description: "Look up a topic on Wikipedia and return a short summary. Use for factual questions about people, places, and things.",
		Schema: ToolSchema{
			Required: []string{"topic"},
			Properties: map[string]Property{
				"topic": {Type: "string", Description: "The topic to look up, e.g. \"Alan Turing\"."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			topic, _ := StringArg(args, "topic")
			title := strings.ReplaceAll(strings.TrimSpace(topic), " ", "_")
			endpoint := baseURL + "/page/summary/" + url.PathEscape(title)

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return "", err
			}
			req.Header.Set("User-Agent", "praxis/1.0")

			resp, err := client.Do(req)
			if err != nil {
				if snippet, ok := offlineLookup(topic); ok {
					return snippet + " (offline snippet)", nil
				}
				return "", fmt.Errorf("wikipedia lookup: %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusNotFound {
				return fmt.Sprintf("No Wikipedia article found for %q.", topic), nil
			}
			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("wikipedia lookup: status %d", resp.StatusCode)
			}

			var summary wikipediaSummary
			if err := json.NewDecoder(io.LimitReader(resp.Body, maxFetchBytes)).Decode(&summary); err != nil {
				return "", fmt.Errorf("wikipedia lookup: %w", err)
			}
			if summary.Extract == "" {
				return fmt.Sprintf("No summary available for %q.", topic), nil
			}
			return fmt.Sprintf("%s: %s", summary.Title, summary.Extract), nil
		},
	}
}
