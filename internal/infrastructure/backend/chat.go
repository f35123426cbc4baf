// Package backend provides the command-generation engines: the embedded
// model (GPU and CPU variants) and the HTTP-based remote services (Ollama
// and vLLM). Every engine implements ports.Backend; none of them executes
// commands or applies safety classification.
package backend

import (
	"fmt"
	"strings"

	"github.com/caro-sh/caro/internal/domain"
)

// chatRequest is the OpenAI-compatible chat payload both remote services
// accept.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Stream    bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// FirstMessage returns the first choice's content, or empty.
func (r chatResponse) FirstMessage() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Choices[0].Message.Content)
}

// buildMessages renders the system and user messages for a request.
func buildMessages(req domain.CommandRequest) []chatMessage {
	var sb strings.Builder
	sb.WriteString("You are caro, a cautious shell assistant. ")
	sb.WriteString("Translate the user's request into a single ")
	sb.WriteString(string(req.Shell))
	sb.WriteString(" command. Reply with the command in a fenced code block followed by a one-line explanation.")
	if p := req.Platform; p != nil {
		fmt.Fprintf(&sb, "\nTarget platform: %s/%s.", p.OS, p.Architecture)
		if len(p.Utilities) > 0 {
			fmt.Fprintf(&sb, " Available utilities: %s.", strings.Join(p.Utilities, ", "))
		}
	}
	return []chatMessage{
		{Role: "system", Content: sb.String()},
		{Role: "user", Content: req.Prompt},
	}
}

// extractCommand pulls the shell command out of a model reply. It tries a
// fenced code block first, then a "command:" prefixed line, then falls back
// to the first non-empty line.
func extractCommand(content string) (command, explanation string) {
	if cmd, rest, ok := extractCodeBlock(content); ok {
		return cmd, rest
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), "command:") {
			rest := strings.Join(append(lines[:i:i], lines[i+1:]...), " ")
			return strings.TrimSpace(line[len("command:"):]), strings.TrimSpace(rest)
		}
	}
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			return line, strings.TrimSpace(strings.Join(lines[i+1:], " "))
		}
	}
	return "", ""
}

func extractCodeBlock(content string) (command, rest string, ok bool) {
	start := strings.Index(content, "```")
	if start < 0 {
		return "", "", false
	}
	tail := content[start+3:]
	end := strings.Index(tail, "```")
	if end < 0 {
		return "", "", false
	}

	block := tail[:end]
	lines := strings.Split(block, "\n")
	if len(lines) > 0 {
		first := strings.TrimSpace(lines[0])
		if first == "sh" || first == "bash" || first == "zsh" || first == "fish" || first == "shell" || first == "powershell" {
			lines = lines[1:]
		}
	}
	command = strings.TrimSpace(strings.Join(lines, "\n"))
	rest = strings.TrimSpace(content[:start] + tail[end+3:])
	return command, rest, command != ""
}
