package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aetheria-app/aetheria/internal/domain/horoscope"
	"github.com/aetheria-app/aetheria/internal/locale"
	"github.com/aetheria-app/aetheria/internal/pkg/logger"
	"github.com/aetheria-app/aetheria/internal/pkg/metrics"
)

// Client runs the generation pipeline: prompt construction, the backend
// call, strict extraction and validation, and the fallback to the simulated
// generator. With surfaceErrors false (the shipped default) every backend
// failure except context cancellation resolves to a complete prediction.
type Client struct {
	backend       Backend // nil when no credential is configured
	mock          *Mock
	surfaceErrors bool
	logger        *logger.Logger
}

// NewClient creates a prediction client. Pass a nil backend to run in
// simulation-only mode.
func NewClient(backend Backend, mock *Mock, surfaceErrors bool, log *logger.Logger) *Client {
	return &Client{
		backend:       backend,
		mock:          mock,
		surfaceErrors: surfaceErrors,
		logger:        log,
	}
}

// Generate resolves to a complete prediction for the user. The only errors
// it returns are context errors (the caller owns the timeout race) and,
// when the build surfaces backend errors, classified backend failures.
func (c *Client) Generate(ctx context.Context, user horoscope.UserData, loc locale.Locale) (Result, error) {
	if c.backend == nil {
		c.logger.Info("no generation credential configured, using simulated prediction")
		return c.fallback(user, loc, ReasonNoCredential), nil
	}

	prompt := BuildPrompt(user, loc)

	start := time.Now()
	text, err := c.backend.GenerateStructured(ctx, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				metrics.RecordGenerationTimeout()
			}
			// Timeout and cancellation belong to the state machine, not
			// the fallback path.
			return Result{}, ctxErr
		}
		reason := classify(err)
		c.logger.WithError(err).Warnf("generation backend failed (%s)", reason)
		if c.surfaceErrors {
			return Result{}, err
		}
		return c.fallback(user, loc, reason), nil
	}

	if text == "" {
		c.logger.Warn("generation backend returned an empty response")
		if c.surfaceErrors {
			return Result{}, fmt.Errorf("empty response from generation backend")
		}
		return c.fallback(user, loc, ReasonEmptyResponse), nil
	}

	prediction, err := parseResponse(text)
	if err != nil {
		c.logger.WithError(err).Warn("generation response failed validation")
		if c.surfaceErrors {
			return Result{}, err
		}
		return c.fallback(user, loc, ReasonParseFailure), nil
	}

	metrics.RecordGeneration(c.backend.Name(), c.backend.Name(), time.Since(start))
	return Result{Prediction: prediction, Source: Source(c.backend.Name())}, nil
}

func (c *Client) fallback(user horoscope.UserData, loc locale.Locale, reason FallbackReason) Result {
	provider := "none"
	if c.backend != nil {
		provider = c.backend.Name()
	}
	metrics.RecordGeneration(provider, string(SourceMock), 0)
	metrics.RecordFallback(string(reason))
	return Result{
		Prediction:     c.mock.Generate(user, loc),
		Source:         SourceMock,
		FallbackReason: reason,
	}
}

func parseResponse(text string) (horoscope.DailyPrediction, error) {
	raw, err := horoscope.ExtractJSON(text)
	if err != nil {
		return horoscope.DailyPrediction{}, err
	}
	return horoscope.ParsePrediction(raw)
}

// classify buckets a backend failure into the recognized error classes.
func classify(err error) FallbackReason {
	var be *BackendError
	if errors.As(err, &be) {
		switch {
		case be.StatusCode == http.StatusTooManyRequests:
			return ReasonRateLimited
		case be.StatusCode == http.StatusForbidden || be.StatusCode == http.StatusUnauthorized:
			return ReasonInvalidCredential
		case be.StatusCode == http.StatusBadRequest:
			return ReasonBadRequest
		case be.StatusCode >= 500:
			return ReasonServerError
		}
	}
	return ReasonTransport
}

// BuildPrompt renders the persona instruction, the user's attributes and
// the expected JSON shape into a single prompt.
func BuildPrompt(user horoscope.UserData, loc locale.Locale) string {
	return fmt.Sprintf(`Role: Modern Psychological Astrologer & Life Coach.
Target: %s, Born: %s (%s).
Traits: %s, %s, %s.
State: %s.
Language: %s.

Generate a JSON response for a daily horoscope.
Tone: Grounded, practical, psychological, realistic. Avoid mystical jargon, magic spells, or archaic fantasy language.
Focus on: Productivity, mental health, relationships, and actionable advice.

Structure:
- headline (concise, clear, max 6 words)
- insight (practical advice based on astrological energy, 2-3 sentences about real life situations)
- powerColor (color name in the target language)
- powerColorHex (hex code)
- stats (love, career, vitality as integers 0-100)

Return ONLY one JSON object with exactly these fields.`,
		user.Name, user.DOB, user.TOB,
		user.ZodiacSign, user.Element, user.Archetype,
		user.Feeling,
		locale.T(loc, locale.KeyLanguageName),
	)
}
