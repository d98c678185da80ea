// Package codegen extracts fenced code blocks from model output and
// applies cheap structural checks before anything downstream runs or
// reviews the code.
package codegen

import (
	"context"
	"fmt"
	"strings"

	"praxis/internal/llm"
)

// Block is one fenced code block from a model response.
type Block struct {
	Language string
	Code     string
}

// ExtractCodeBlocks returns every fenced block in order of appearance.
// The language tag is whatever followed the opening fence, lowercased.
func ExtractCodeBlocks(text string) []Block {
	var blocks []Block
	lines := strings.Split(text, "\n")

	inBlock := false
	var lang string
	var body []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inBlock {
				blocks = append(blocks, Block{
					Language: lang,
					Code:     strings.Join(body, "\n"),
				})
				inBlock = false
				body = nil
				continue
			}
			inBlock = true
			lang = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(trimmed, "```")))
			continue
		}
		if inBlock {
			body = append(body, line)
		}
	}
	// An unterminated fence still counts; models drop closing fences
	// when they run out of tokens.
	if inBlock && len(body) > 0 {
		blocks = append(blocks, Block{Language: lang, Code: strings.Join(body, "\n")})
	}
	return blocks
}

// FirstBlock returns the first block matching language, or the first
// block of any language when language is empty. ok is false when the
// text has no usable block.
func FirstBlock(text, language string) (Block, bool) {
	for _, b := range ExtractCodeBlocks(text) {
		if language == "" || b.Language == language {
			return b, true
		}
	}
	return Block{}, false
}

// StripFences returns the code with fences removed. When the text has
// no fences it is returned trimmed, since some models answer with bare
// code.
func StripFences(text string) string {
	blocks := ExtractCodeBlocks(text)
	if len(blocks) == 0 {
		return strings.TrimSpace(text)
	}
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.Code
	}
	return strings.Join(parts, "\n\n")
}

// Check runs structural heuristics over a block and returns nil when it
// looks like plausible code. These are sanity gates, not a compiler.
func Check(b Block) error {
	code := strings.TrimSpace(b.Code)
	if code == "" {
		return fmt.Errorf("code block is empty")
	}
	if err := checkBalanced(code); err != nil {
		return err
	}
	if !hasDeclaration(b.Language, code) {
		return fmt.Errorf("no function or class declaration found")
	}
	return nil
}

// CheckText extracts blocks from raw model output and checks each one.
func CheckText(text string) error {
	blocks := ExtractCodeBlocks(text)
	if len(blocks) == 0 {
		return fmt.Errorf("no fenced code block found")
	}
	for i, b := range blocks {
		if err := Check(b); err != nil {
			return fmt.Errorf("block %d: %w", i+1, err)
		}
	}
	return nil
}

func checkBalanced(code string) error {
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}
	var stack []rune
	inString := false
	var quote rune
	escaped := false
	for _, r := range code {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == quote:
				inString = false
			}
			continue
		}
		switch r {
		case '"', '\'', '`':
			inString = true
			quote = r
		case '(', '[', '{':
			stack = append(stack, r)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return fmt.Errorf("unbalanced %q", r)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("unclosed %q", stack[len(stack)-1])
	}
	return nil
}

var declKeywords = map[string][]string{
	"go":         {"func "},
	"python":     {"def ", "class ", "lambda "},
	"py":         {"def ", "class ", "lambda "},
	"javascript": {"function ", "=> ", "class "},
	"js":         {"function ", "=> ", "class "},
	"typescript": {"function ", "=> ", "class ", "interface "},
	"ts":         {"function ", "=> ", "class ", "interface "},
	"rust":       {"fn ", "impl ", "struct "},
	"java":       {"class ", "void ", "public "},
	"c":          {"(", "struct "},
	"sql":        {"select ", "insert ", "update ", "create ", "delete "},
	"bash":       {""},
	"sh":         {""},
	"":           {""},
}

func hasDeclaration(language, code string) bool {
	keywords, ok := declKeywords[language]
	if !ok {
		// Unknown languages get a pass; nonempty was already checked.
		return true
	}
	lower := strings.ToLower(code)
	for _, kw := range keywords {
		if kw == "" || strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

const generatePromptTemplate = `Write %s code for the following task. Respond with one fenced code block and nothing else.

Task: %s`

const repairPromptTemplate = `Your previous code had a problem: %s

Task: %s

Respond with the corrected code in one fenced code block.`

// maxRepairs bounds the generate-check-repair loop.
const maxRepairs = 2

// Generate asks the model for code and repairs structural failures by
// feeding the check error back, up to maxRepairs extra attempts.
func Generate(ctx context.Context, client llm.Client, language, task string) (Block, error) {
	prompt := fmt.Sprintf(generatePromptTemplate, language, task)
	var lastErr error
	for attempt := 0; attempt <= maxRepairs; attempt++ {
		resp, err := client.Complete(ctx, prompt)
		if err != nil {
			return Block{}, fmt.Errorf("generate code: %w", err)
		}
		block, ok := FirstBlock(resp, language)
		if !ok {
			// Bare code without fences still counts.
			block = Block{Language: language, Code: strings.TrimSpace(resp)}
		}
		if err := Check(block); err == nil {
			return block, nil
		} else {
			lastErr = err
		}
		prompt = fmt.Sprintf(repairPromptTemplate, lastErr, task)
	}
	return Block{}, fmt.Errorf("code failed checks after %d attempts: %w", maxRepairs+1, lastErr)
}
