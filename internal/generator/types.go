// Package generator produces daily predictions, either through an external
// generation backend or a deterministic simulated fallback.
package generator

import (
	"context"
	"fmt"

	"github.com/aetheria-app/aetheria/internal/domain/horoscope"
)

// Source records which path produced a prediction.
type Source string

const (
	SourceGemini Source = "gemini"
	SourceOpenAI Source = "openai"
	SourceMock   Source = "mock"
)

// Backend is the opaque generation capability: given a prompt that demands
// a schema-constrained JSON object, return text expected to contain it.
type Backend interface {
	Name() string
	GenerateStructured(ctx context.Context, prompt string) (string, error)
}

// BackendError is a classified generation-backend failure.
type BackendError struct {
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("generation backend returned status %d: %s", e.StatusCode, e.Body)
}

// FallbackReason explains why the simulated generator was substituted.
type FallbackReason string

const (
	ReasonNone              FallbackReason = ""
	ReasonNoCredential      FallbackReason = "no_credential"
	ReasonEmptyResponse     FallbackReason = "empty_response"
	ReasonParseFailure      FallbackReason = "parse_failure"
	ReasonRateLimited       FallbackReason = "rate_limited"
	ReasonInvalidCredential FallbackReason = "invalid_credential"
	ReasonBadRequest        FallbackReason = "bad_request"
	ReasonServerError       FallbackReason = "server_error"
	ReasonTransport         FallbackReason = "transport"
)

// Result is a tagged generation outcome. The prediction is always complete;
// Source and FallbackReason say where it came from.
type Result struct {
	Prediction     horoscope.DailyPrediction `json:"prediction"`
	Source         Source                    `json:"source"`
	FallbackReason FallbackReason            `json:"fallbackReason,omitempty"`
}
