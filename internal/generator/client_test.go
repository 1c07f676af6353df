package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aetheria-app/aetheria/internal/domain/horoscope"
	"github.com/aetheria-app/aetheria/internal/locale"
	"github.com/aetheria-app/aetheria/internal/pkg/logger"
)

type stubBackend struct {
	text string
	err  error
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) GenerateStructured(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.text, s.err
}

func newTestClient(backend Backend, surfaceErrors bool) *Client {
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	mock := NewMockWithClock(func() time.Time {
		return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	})
	return NewClient(backend, mock, surfaceErrors, log)
}

var testUser = horoscope.UserData{
	Name: "Anna", DOB: "1990-07-15", TOB: "08:30",
	Element: horoscope.ElementFire, Archetype: horoscope.ArchetypeSage,
	Feeling: horoscope.FeelingEnergetic, ZodiacSign: "Cancer",
}

func TestGenerateNoCredentialUsesMock(t *testing.T) {
	c := newTestClient(nil, false)
	res, err := c.Generate(context.Background(), testUser, locale.RU)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Source != SourceMock || res.FallbackReason != ReasonNoCredential {
		t.Errorf("got source %q reason %q, want mock/no_credential", res.Source, res.FallbackReason)
	}
}

func TestGenerateFallsBackOnAnyFailure(t *testing.T) {
	tests := []struct {
		name       string
		backend    *stubBackend
		wantReason FallbackReason
	}{
		{"rate limited", &stubBackend{err: &BackendError{StatusCode: 429}}, ReasonRateLimited},
		{"invalid credential", &stubBackend{err: &BackendError{StatusCode: 403}}, ReasonInvalidCredential},
		{"bad request", &stubBackend{err: &BackendError{StatusCode: 400}}, ReasonBadRequest},
		{"server error", &stubBackend{err: &BackendError{StatusCode: 503}}, ReasonServerError},
		{"transport error", &stubBackend{err: errors.New("connection reset")}, ReasonTransport},
		{"empty response", &stubBackend{text: ""}, ReasonEmptyResponse},
		{"prose without json", &stubBackend{text: "the stars are silent"}, ReasonParseFailure},
		{"partial record", &stubBackend{text: `{"headline":"x"}`}, ReasonParseFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(tt.backend, false)
			res, err := c.Generate(context.Background(), testUser, locale.RU)
			if err != nil {
				t.Fatalf("Generate() error = %v, want fallback", err)
			}
			if res.Source != SourceMock {
				t.Errorf("source = %q, want mock", res.Source)
			}
			if res.FallbackReason != tt.wantReason {
				t.Errorf("reason = %q, want %q", res.FallbackReason, tt.wantReason)
			}
			if res.Prediction.Headline == "" || !res.Prediction.Stats.InRange() {
				t.Errorf("fallback prediction incomplete: %+v", res.Prediction)
			}
		})
	}
}

func TestGenerateAcceptsValidResponse(t *testing.T) {
	payload := "```json\n" + `{
		"headline": "Фокус на главном",
		"insight": "Завершайте начатое.",
		"powerColor": "Золотистый",
		"powerColorHex": "#FFD700",
		"stats": {"love": 70, "career": 55, "vitality": 90}
	}` + "\n```"

	c := newTestClient(&stubBackend{text: payload}, false)
	res, err := c.Generate(context.Background(), testUser, locale.RU)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Source != Source("stub") {
		t.Errorf("source = %q, want stub backend", res.Source)
	}
	if res.FallbackReason != ReasonNone {
		t.Errorf("reason = %q, want none", res.FallbackReason)
	}
	if res.Prediction.Stats.Love != 70 {
		t.Errorf("love = %d, want 70", res.Prediction.Stats.Love)
	}
}

func TestGenerateSurfaceErrorsVariant(t *testing.T) {
	c := newTestClient(&stubBackend{err: &BackendError{StatusCode: 500}}, true)
	if _, err := c.Generate(context.Background(), testUser, locale.RU); err == nil {
		t.Error("Generate() swallowed the backend error in the surfacing build")
	}
}

func TestGeneratePropagatesContextErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(&stubBackend{text: "irrelevant"}, false)
	_, err := c.Generate(ctx, testUser, locale.RU)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
}

func TestBuildPromptEmbedsTraitsAndLocale(t *testing.T) {
	prompt := BuildPrompt(testUser, locale.EN)
	for _, want := range []string{"Anna", "1990-07-15", "08:30", "Cancer", "Fire", "Sage", "Energetic", "English", "powerColorHex"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
