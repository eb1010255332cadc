// Package sentiment scores financial news text. A configured language model
// is asked first; any failure collapses into the deterministic keyword scorer.
package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/seenimoa/finnews/internal/llm"
	"github.com/seenimoa/finnews/pkg/models"
)

// ModelConfidence is the confidence reported for model-derived scores.
const ModelConfidence = 80.0

// SystemPrompt frames the model as an analyst.
const SystemPrompt = "You are a financial analyst expert."

const promptTemplate = `Analyze the following financial news text and provide:
1. Sentiment score (-1 to +1)
2. Confidence (0-100)
3. Market impact (bullish/bearish/neutral)
4. Key quotes
5. Market implications

Text: %s`

// ChatModel is the model collaborator: text in, free-form text out.
// *llm.Router and every llm.Provider satisfy it.
type ChatModel interface {
	Chat(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (*llm.Response, error)
}

// Analyzer produces a SentimentResult for a piece of text.
// Its configuration is fixed at construction; it is safe for concurrent use.
type Analyzer struct {
	model  ChatModel
	opts   *llm.ChatOptions
	logger *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithChatOptions sets the options sent with every model request.
func WithChatOptions(opts *llm.ChatOptions) Option {
	return func(a *Analyzer) { a.opts = opts }
}

// WithLogger sets the analyzer's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// NewAnalyzer creates an analyzer. A nil model means no credential is
// configured and every call uses the keyword scorer.
func NewAnalyzer(model ChatModel, opts ...Option) *Analyzer {
	a := &Analyzer{model: model, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// UsesModel reports whether a model collaborator is configured.
func (a *Analyzer) UsesModel() bool { return a.model != nil }

// Analyze scores text. It never fails: when the model is absent or its call
// errors, the keyword scorer's result is returned instead.
func (a *Analyzer) Analyze(ctx context.Context, text string) models.SentimentResult {
	if a.model == nil {
		a.logger.Debug("no model configured, using keyword sentiment")
		return Fallback(text)
	}

	res, err := a.analyzeWithModel(ctx, text)
	if err != nil {
		a.logger.Warn("model sentiment failed, using keyword sentiment", "error", err)
		return Fallback(text)
	}
	return res
}

// analyzeWithModel asks the model and derives a score from its reply.
func (a *Analyzer) analyzeWithModel(ctx context.Context, text string) (models.SentimentResult, error) {
	messages := []llm.Message{
		llm.SystemMessage(SystemPrompt),
		llm.UserMessage(BuildPrompt(text)),
	}

	resp, err := a.model.Chat(ctx, messages, a.opts)
	if err != nil {
		return models.SentimentResult{}, fmt.Errorf("model call: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return models.SentimentResult{}, llm.ErrEmptyResponse
	}

	a.logger.Debug("model sentiment reply", "response", resp.String())

	score := ScoreModelReply(resp.Content)
	return models.SentimentResult{
		SentimentScore:     score,
		Confidence:         ModelConfidence,
		MarketImpact:       models.ImpactForScore(score),
		CriticalQuotes:     []string{},
		MarketImplications: []string{resp.Content},
	}, nil
}

// BuildPrompt returns the user prompt sent to the model for text.
func BuildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}

// ScoreModelReply derives a coarse score from the model's free text:
// -0.5 if it mentions "bearish", otherwise +0.5 if it mentions "bullish",
// otherwise 0.
func ScoreModelReply(reply string) float64 {
	lower := strings.ToLower(reply)
	switch {
	case strings.Contains(lower, "bearish"):
		return -0.5
	case strings.Contains(lower, "bullish"):
		return 0.5
	default:
		return 0
	}
}
