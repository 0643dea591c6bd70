package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/search"
)

// Service answers questions with retrieved documentation as context.
type Service struct {
	retriever search.Retriever
	model     ai.ChatModel
	maxTokens int
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMaxTokens caps the length of generated answers. Zero leaves it to the model.
func WithMaxTokens(n int) Option {
	return func(s *Service) error {
		if n < 0 {
			return fmt.Errorf("%w: max tokens must not be negative, got %d", core.ErrInvalidArgument, n)
		}
		s.maxTokens = n
		return nil
	}
}

// NewService creates a chat service.
func NewService(retriever search.Retriever, model ai.ChatModel, opts ...Option) (*Service, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if model == nil {
		return nil, ErrChatModelRequired
	}

	s := &Service{
		retriever: retriever,
		model:     model,
		logger:    slog.Default().With("component", "chat"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Ask answers query in the context of history. The returned answer's
// Sources are exactly the chunks the model was given.
func (s *Service) Ask(ctx context.Context, query string, history []core.Turn) (*core.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	for _, turn := range history {
		if err := core.ValidateTurn(turn); err != nil {
			return nil, err
		}
	}

	question := query
	if len(history) > 0 {
		rewritten, err := s.rewrite(ctx, query, history)
		if err != nil {
			return nil, err
		}
		question = rewritten
	}

	sources, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		s.logger.Error("retrieval failed", "query", question, "err", err)
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	system, err := answerPrompt.Format(map[string]any{"context": renderContext(sources)})
	if err != nil {
		return nil, fmt.Errorf("failed to render answer prompt: %w", err)
	}

	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	for _, turn := range history {
		messages = append(messages, llms.TextParts(messageType(turn.Role), turn.Text))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, query))

	text, err := s.generate(ctx, messages, s.maxTokens)
	if err != nil {
		s.logger.Error("answer generation failed", "err", err)
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	s.logger.Debug("answered question", "question", question, "sources", len(sources))
	return &core.Answer{
		Question: question,
		Text:     text,
		Sources:  sources,
	}, nil
}

// rewrite turns a follow-up question into a standalone one.
func (s *Service) rewrite(ctx context.Context, query string, history []core.Turn) (string, error) {
	prompt, err := rephrasePrompt.Format(map[string]any{
		"history":  renderHistory(history),
		"question": query,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render rephrase prompt: %w", err)
	}

	text, err := s.generate(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, 0)
	if err != nil {
		s.logger.Error("question rewrite failed", "err", err)
		return "", fmt.Errorf("question rewrite failed: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		s.logger.Warn("model returned an empty rewrite, using the original question")
		return query, nil
	}
	s.logger.Debug("rewrote question", "original", query, "standalone", text)
	return text, nil
}

func (s *Service) generate(ctx context.Context, messages []llms.MessageContent, maxTokens int) (string, error) {
	opts := []llms.CallOption{llms.WithTemperature(0)}
	if maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(maxTokens))
	}
	resp, err := s.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	return ai.FirstChoice(resp)
}

func messageType(role core.Role) llms.ChatMessageType {
	if role == core.RoleAI {
		return llms.ChatMessageTypeAI
	}
	return llms.ChatMessageTypeHuman
}
