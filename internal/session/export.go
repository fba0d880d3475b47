package session

import (
	"fmt"
	"strings"

	"github.com/codeswap/codeswap/internal/usage"
)

// escapeTableCell escapes special characters for markdown table cells.
func escapeTableCell(s string) string {
	// Replace pipe characters and newlines which break tables
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

// ExportToMarkdown renders a transcript as markdown for sharing.
func ExportToMarkdown(sess *Session, messages []Message) string {
	var b strings.Builder

	title := sess.Title
	if title == "" {
		title = ShortID(sess.ID)
	}
	b.WriteString(fmt.Sprintf("# Session: %s\n\n", escapeTableCell(title)))

	b.WriteString("## Setup\n\n")
	b.WriteString("| | |\n")
	b.WriteString("|---|---|\n")

	mode := string(sess.Mode)
	if mode == "" {
		mode = "chat"
	}
	b.WriteString(fmt.Sprintf("| **Mode** | %s |\n", mode))

	if sess.Provider != "" {
		b.WriteString(fmt.Sprintf("| **Provider** | %s |\n", escapeTableCell(sess.Provider)))
	}
	if sess.Model != "" {
		b.WriteString(fmt.Sprintf("| **Model** | %s |\n", escapeTableCell(sess.Model)))
	}
	b.WriteString(fmt.Sprintf("| **Created** | %s |\n", sess.CreatedAt.UTC().Format("2006-01-02 15:04 UTC")))
	b.WriteString("\n")

	if sess.TokensIn > 0 || sess.TokensOut > 0 || sess.CostUSD > 0 {
		b.WriteString("## Usage\n\n")
		b.WriteString("| Tokens In | Tokens Out | Cost |\n")
		b.WriteString("|-----------|------------|------|\n")
		b.WriteString(fmt.Sprintf("| %s | %s | %s |\n\n",
			usage.FormatTokens(int(sess.TokensIn)),
			usage.FormatTokens(int(sess.TokensOut)),
			usage.FormatCost(sess.CostUSD)))
	}

	b.WriteString("---\n\n")
	b.WriteString("## Conversation\n\n")

	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			b.WriteString("### User\n\n")
		case RoleSynthesis:
			b.WriteString("### Synthesis\n\n")
		default:
			if msg.Agent != "" {
				b.WriteString(fmt.Sprintf("### %s\n\n", escapeTableCell(msg.Agent)))
			} else {
				b.WriteString("### Assistant\n\n")
			}
		}
		b.WriteString(msg.Content)
		b.WriteString("\n\n---\n\n")
	}

	return b.String()
}
