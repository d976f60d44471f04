package summary

import (
	"context"
	"strings"

	_ "embed"

	"github.com/spigell/shl-recommender/internal/ai"
	"github.com/spigell/shl-recommender/internal/utils"
	"go.uber.org/zap"
)

// NoSummary is the sentinel returned when summarization is unavailable.
// Callers treat it as absence, never as content.
const NoSummary = "no summary available"

const (
	minSummaryBytes = 500
	minSummaryWords = 120

	maxLogLength = 200
)

// DefaultModels is the ordered generation model fallback list tried on a
// cache miss.
var DefaultModels = []string{
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
	"gemini-1.5-flash",
}

//go:embed prompt.md
var promptTemplate string

// NeedsSummary reports whether the text is long enough that a keyword summary
// sharpens retrieval. Short queries embed precisely without one, so the
// summarization cost is skipped.
func NeedsSummary(text string) bool {
	if len(text) >= minSummaryBytes {
		return true
	}
	return len(strings.Fields(text)) >= minSummaryWords
}

// Summarizer extracts a keyword line from long query text through a
// generation model, memoizing results in an injectable cache.
type Summarizer struct {
	generator ai.Generator
	cache     Cache
	models    []string
	logger    *zap.Logger
}

// New builds a Summarizer. A nil generator produces NoSummary for every call;
// a nil cache disables memoization; an empty model list uses DefaultModels.
func New(generator ai.Generator, cache Cache, models []string, logger *zap.Logger) *Summarizer {
	if cache == nil {
		cache = NopCache{}
	}
	if len(models) == 0 {
		models = DefaultModels
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Summarizer{
		generator: generator,
		cache:     cache,
		models:    models,
		logger:    logger,
	}
}

// Summarize returns one comma-separated keyword line for the text, or
// NoSummary when no generator is configured or every model fails. It never
// returns an error: summarization must not block scoring.
func (s *Summarizer) Summarize(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return NoSummary
	}

	key := ComputeHash(text)
	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug("summary cache hit", zap.String("key", utils.TruncateForLog(key, 12)))
		return cached
	}

	if s.generator == nil {
		return NoSummary
	}

	prompt := buildPrompt(text)

	for _, model := range s.models {
		line, err := s.generator.GenerateContent(ctx, model, prompt)
		if err != nil {
			s.logger.Debug("summary model failed", zap.String("model", model), zap.Error(err))
			if ctx.Err() != nil {
				return NoSummary
			}
			continue
		}

		if line = sanitizeLine(line); line == "" {
			continue
		}

		s.cache.Set(key, line)
		s.logger.Debug("summary generated",
			zap.String("model", model),
			zap.String("summary_preview", utils.TruncateForLog(line, maxLogLength)),
		)
		return line
	}

	return NoSummary
}

func buildPrompt(query string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Extract one comma-separated line of keywords from the following text:\n\n{{QUERY}}"
	}
	return strings.ReplaceAll(template, "{{QUERY}}", query)
}

// sanitizeLine reduces a model response to its first non-empty line, with
// code fences and backticks stripped.
func sanitizeLine(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```text")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")

	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
