package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aetheria-app/aetheria/internal/api/dto"
	"github.com/aetheria-app/aetheria/internal/api/middleware"
	"github.com/aetheria-app/aetheria/internal/domain/profile"
	"github.com/aetheria-app/aetheria/internal/generator"
	"github.com/aetheria-app/aetheria/internal/pkg/logger"
	"github.com/aetheria-app/aetheria/internal/pkg/validator"
	"github.com/aetheria-app/aetheria/internal/services"
	"github.com/aetheria-app/aetheria/internal/testutil"
)

func newHoroscopeHandler(t *testing.T, profiles *testutil.MemProfileRepo) *HoroscopeHandler {
	t.Helper()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	entitlement := services.NewEntitlementService(profiles, 3, log)
	historySvc := services.NewHistoryService(testutil.NewMemHistoryRepo(), log)
	client := generator.NewClient(nil, generator.NewMock(), false, log)
	sessions := services.NewSessionManager(entitlement, historySvc, client, time.Second, log)
	return NewHoroscopeHandler(sessions, log, validator.New())
}

func submitRequest(t *testing.T, body dto.OnboardingRequest, identityID string) *http.Request {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/horoscope/session", bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.SessionKeyHeader, "test-session")
	if identityID != "" {
		ctx := context.WithValue(req.Context(), middleware.IdentityKey, profile.Classify(identityID))
		req = req.WithContext(ctx)
	}
	return req
}

func validOnboarding() dto.OnboardingRequest {
	return dto.OnboardingRequest{
		Name:      "Анна",
		DOB:       "1995-07-15",
		TOB:       "08:30",
		Element:   "Water",
		Archetype: "Healer",
		Feeling:   "SeekingLove",
	}
}

func TestHoroscopeHandler_Submit(t *testing.T) {
	handler := newHoroscopeHandler(t, testutil.NewMemProfileRepo())

	rr := httptest.NewRecorder()
	handler.Submit(rr, submitRequest(t, validOnboarding(), "user-1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v, body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var response struct {
		Success bool                `json:"success"`
		Data    dto.SessionResponse `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Data.State != "result" {
		t.Errorf("expected result state, got %s", response.Data.State)
	}
	if response.Data.Prediction == nil {
		t.Fatal("expected a prediction in the response")
	}
	if !response.Data.Prediction.Stats.InRange() {
		t.Errorf("stats out of range: %+v", response.Data.Prediction.Stats)
	}
	if response.Data.Source != "mock" {
		t.Errorf("expected simulated source without a credential, got %s", response.Data.Source)
	}
}

func TestHoroscopeHandler_SubmitValidation(t *testing.T) {
	handler := newHoroscopeHandler(t, testutil.NewMemProfileRepo())

	tests := []struct {
		name   string
		mutate func(*dto.OnboardingRequest)
	}{
		{"missing name", func(r *dto.OnboardingRequest) { r.Name = "" }},
		{"bad dob", func(r *dto.OnboardingRequest) { r.DOB = "15/07/1995" }},
		{"unknown element", func(r *dto.OnboardingRequest) { r.Element = "Metal" }},
		{"unknown feeling", func(r *dto.OnboardingRequest) { r.Feeling = "Hungry" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validOnboarding()
			tt.mutate(&body)

			rr := httptest.NewRecorder()
			handler.Submit(rr, submitRequest(t, body, "user-1"))

			if rr.Code != http.StatusBadRequest {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestHoroscopeHandler_SubmitRequiresSessionKey(t *testing.T) {
	handler := newHoroscopeHandler(t, testutil.NewMemProfileRepo())

	raw, _ := json.Marshal(validOnboarding())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/horoscope/session", bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.Submit(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusBadRequest)
	}
}

func TestHoroscopeHandler_PaywallFlow(t *testing.T) {
	profiles := testutil.NewMemProfileRepo()
	profiles.Seed(&profile.Profile{IdentityID: "user-1", FreeUsageCount: 3})
	handler := newHoroscopeHandler(t, profiles)

	rr := httptest.NewRecorder()
	handler.Submit(rr, submitRequest(t, validOnboarding(), "user-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("submit failed: %v, body: %s", rr.Code, rr.Body.String())
	}

	var response struct {
		Data dto.SessionResponse `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Data.State != "paywall" {
		t.Fatalf("expected paywall, got %s", response.Data.State)
	}
	if response.Data.Paywall == nil || response.Data.Paywall.Title == "" {
		t.Error("expected localized paywall copy")
	}

	// Unlock resumes generation on the same session.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/horoscope/unlock", nil)
	req.Header.Set(middleware.SessionKeyHeader, "test-session")
	req = req.WithContext(context.WithValue(req.Context(), middleware.IdentityKey, profile.Classify("user-1")))

	rr = httptest.NewRecorder()
	handler.Unlock(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("unlock failed: %v, body: %s", rr.Code, rr.Body.String())
	}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Data.State != "result" {
		t.Errorf("expected result after unlock, got %s", response.Data.State)
	}
}

func TestHoroscopeHandler_State(t *testing.T) {
	handler := newHoroscopeHandler(t, testutil.NewMemProfileRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/horoscope/state", nil)
	req.Header.Set(middleware.SessionKeyHeader, "fresh-session")

	rr := httptest.NewRecorder()
	handler.State(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}

	var response struct {
		Data dto.SessionResponse `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Data.State != "onboarding" {
		t.Errorf("fresh session must start in onboarding, got %s", response.Data.State)
	}
}
