package dto

import (
	"time"

	"github.com/aetheria-app/aetheria/internal/domain/horoscope"
)

// OnboardingRequest carries the data collected by the onboarding flow
type OnboardingRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=100"`
	DOB       string `json:"dob" validate:"required,datetime=2006-01-02"`
	TOB       string `json:"tob" validate:"omitempty,datetime=15:04"`
	Element   string `json:"element" validate:"required,oneof=Fire Earth Air Water"`
	Archetype string `json:"archetype" validate:"required,oneof=Warrior Healer Sage Creator"`
	Feeling   string `json:"feeling" validate:"required,oneof=Lost Energetic SeekingLove FocusOnMoney"`
}

// UserData converts the request into the domain input.
func (r OnboardingRequest) UserData() horoscope.UserData {
	return horoscope.UserData{
		Name:      r.Name,
		DOB:       r.DOB,
		TOB:       r.TOB,
		Element:   horoscope.Element(r.Element),
		Archetype: horoscope.Archetype(r.Archetype),
		Feeling:   horoscope.Feeling(r.Feeling),
	}
}

// SessionResponse is the app session's current view
type SessionResponse struct {
	State        string                     `json:"state"`
	User         *horoscope.UserData        `json:"user,omitempty"`
	Prediction   *horoscope.DailyPrediction `json:"prediction,omitempty"`
	Source       string                     `json:"source,omitempty"`
	EntryID      string                     `json:"entryId,omitempty"`
	ErrorMessage string                     `json:"errorMessage,omitempty"`
	Paywall      *PaywallDTO                `json:"paywall,omitempty"`
}

// PaywallDTO carries the localized paywall copy
type PaywallDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HistoryEntryDTO is one archived reading
type HistoryEntryDTO struct {
	ID         string                    `json:"id"`
	Timestamp  time.Time                 `json:"timestamp"`
	Prediction horoscope.DailyPrediction `json:"prediction"`
}

// HistoryResponse lists archived readings, most recent first
type HistoryResponse struct {
	Entries []HistoryEntryDTO `json:"entries"`
	Empty   string            `json:"emptyMessage,omitempty"`
}

// EntitlementResponse describes the caller's quota position
type EntitlementResponse struct {
	IsPremium      bool `json:"isPremium"`
	FreeUsageCount int  `json:"freeUsageCount"`
	FreeLimit      int  `json:"freeLimit"`
	Remaining      int  `json:"remaining"`
}
