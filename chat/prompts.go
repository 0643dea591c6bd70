package chat

import (
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/poiesic/docqa/core"
)

var rephrasePrompt = prompts.NewPromptTemplate(
	`Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question.

Chat History:
{{.history}}
Follow Up Input: {{.question}}
Standalone Question:`,
	[]string{"history", "question"},
)

var answerPrompt = prompts.NewPromptTemplate(
	`Answer any user questions based solely on the context below. If the context does not contain the answer, say that you don't know.

<context>
{{.context}}
</context>`,
	[]string{"context"},
)

// renderHistory formats turns one per line as "role: text".
func renderHistory(history []core.Turn) string {
	var b strings.Builder
	for _, turn := range history {
		b.WriteString(string(turn.Role))
		b.WriteString(": ")
		b.WriteString(turn.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// renderContext joins the retrieved chunk texts with blank lines.
func renderContext(results []*core.SearchResult) string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Chunk.Text)
	}
	return strings.Join(texts, "\n\n")
}
