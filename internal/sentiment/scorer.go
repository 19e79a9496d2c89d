package sentiment

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"stock-advisor/internal/domain"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// MinContentLength is the trimmed article length below which no model call is made.
	MinContentLength = 100
	// Neutral is returned whenever a score cannot be obtained.
	Neutral = 0.0

	defaultTimeout = 30 * time.Second
)

var scorePattern = regexp.MustCompile(`[-+]?(?:\d*\.\d+|\d+)`)

// Client is a hosted language model that answers a prompt with free text.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Scorer struct {
	client  Client
	timeout time.Duration
	tracer  trace.Tracer
}

// NewScorer returns a scorer bound to client. A nil client yields a scorer that
// always answers Neutral.
func NewScorer(tracer trace.Tracer, client Client, timeout time.Duration) *Scorer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Scorer{client: client, timeout: timeout, tracer: tracer}
}

// Score rates an article in [-1, 1]. It never fails: short content, model
// errors, timeouts and unparseable answers all degrade to Neutral.
func (s *Scorer) Score(ctx context.Context, title, content string) float64 {
	trimmed := strings.TrimSpace(content)
	if len([]rune(trimmed)) < MinContentLength {
		return Neutral
	}
	if s.client == nil {
		return Neutral
	}

	ctx, span := s.tracer.Start(ctx, "sentiment-scorer.score")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.client.Complete(ctx, BuildPrompt(title, content))
	if err != nil {
		span.RecordError(err)
		log.Warn("sentiment scoring failed, defaulting to neutral", "title", title, "err", err)
		return Neutral
	}

	score, ok := ParseScore(text)
	if !ok {
		log.Warn("could not parse sentiment value, defaulting to neutral", "title", title, "response", text)
		return Neutral
	}
	span.SetAttributes(attribute.Float64("sentiment.score", score))
	return score
}

// BuildPrompt asks for a single number for the title and the first
// domain.MaxArticleContent characters of content.
func BuildPrompt(title, content string) string {
	runes := []rune(content)
	if len(runes) > domain.MaxArticleContent {
		runes = runes[:domain.MaxArticleContent]
	}
	return fmt.Sprintf(
		"Provide a sentiment rating for this news article between -1 (very negative) and 1 (very positive). "+
			"Only return the numeric value. Title: '%s'. Content: %s",
		title, string(runes),
	)
}

// ParseScore extracts the first signed decimal or integer in text, clamped to
// [-1, 1]. ok is false when text holds no number.
func ParseScore(text string) (float64, bool) {
	match := scorePattern.FindString(text)
	if match == "" {
		return Neutral, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return Neutral, false
	}
	switch {
	case v > 1:
		v = 1
	case v < -1:
		v = -1
	}
	return v, true
}
