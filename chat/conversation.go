package chat

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/poiesic/docqa/core"
)

// Conversation holds the turns of one chat session.
type Conversation struct {
	service *Service

	mu      sync.Mutex
	history []core.Turn
}

// NewConversation starts an empty conversation.
func NewConversation(service *Service) *Conversation {
	return &Conversation{service: service}
}

// Ask answers query with the conversation so far and, on success, records
// the question and the answer text as new turns.
func (c *Conversation) Ask(ctx context.Context, query string) (*core.Answer, error) {
	history := c.History()

	answer, err := c.service.Ask(ctx, query, history)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.history = append(c.history,
		core.Turn{Role: core.RoleHuman, Text: strings.TrimSpace(query)},
		core.Turn{Role: core.RoleAI, Text: answer.Text},
	)
	c.mu.Unlock()
	return answer, nil
}

// History returns a copy of the recorded turns.
func (c *Conversation) History() []core.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.history)
}

// Reset forgets all turns.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
}

// FormatSources lists distinct URLs sorted and numbered, under a "sources:"
// heading. It returns "" when there are none.
func FormatSources(urls []string) string {
	unique := slices.Clone(urls)
	slices.Sort(unique)
	unique = slices.Compact(unique)
	unique = slices.DeleteFunc(unique, func(u string) bool { return u == "" })
	if len(unique) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("sources:\n")
	for i, u := range unique {
		fmt.Fprintf(&b, "%d. %s\n", i+1, u)
	}
	return b.String()
}

// FormatAnswer renders an answer followed by its sources.
func FormatAnswer(answer *core.Answer) string {
	sources := FormatSources(answer.SourceURLs())
	if sources == "" {
		return answer.Text
	}
	return answer.Text + "\n\n" + sources
}
