package horoscope

import (
	"strings"
	"time"
	"unicode"

	"github.com/aetheria-app/aetheria/internal/zodiac"
)

// Element is the user's elemental affinity.
type Element string

const (
	ElementFire  Element = "Fire"
	ElementEarth Element = "Earth"
	ElementAir   Element = "Air"
	ElementWater Element = "Water"
)

// Archetype is the user's self-selected archetype.
type Archetype string

const (
	ArchetypeWarrior Archetype = "Warrior"
	ArchetypeHealer  Archetype = "Healer"
	ArchetypeSage    Archetype = "Sage"
	ArchetypeCreator Archetype = "Creator"
)

// Feeling is the user's current emotional state or focus.
type Feeling string

const (
	FeelingLost         Feeling = "Lost"
	FeelingEnergetic    Feeling = "Energetic"
	FeelingSeekingLove  Feeling = "SeekingLove"
	FeelingFocusOnMoney Feeling = "FocusOnMoney"
)

// TimeLayout is the wire format for birth times.
const TimeLayout = "15:04"

// UserData is the input collected once per session by onboarding.
type UserData struct {
	Name       string      `json:"name"`
	DOB        string      `json:"dob"` // YYYY-MM-DD
	TOB        string      `json:"tob"` // HH:MM
	Element    Element     `json:"element"`
	Archetype  Archetype   `json:"archetype"`
	Feeling    Feeling     `json:"feeling"`
	ZodiacSign zodiac.Sign `json:"zodiacSign,omitempty"` // derived from DOB
}

// Normalize capitalizes the first letter of the name and derives the
// zodiac sign from the date of birth.
func (u *UserData) Normalize() {
	u.Name = strings.TrimSpace(u.Name)
	if u.Name != "" {
		r := []rune(u.Name)
		r[0] = unicode.ToUpper(r[0])
		u.Name = string(r)
	}
	u.ZodiacSign = zodiac.Resolve(u.DOB)
}

// Complete reports whether every required field is present. Completeness
// gates the transition out of onboarding.
func (u *UserData) Complete() bool {
	if u.Name == "" || u.DOB == "" {
		return false
	}
	if u.Element == "" || u.Archetype == "" || u.Feeling == "" {
		return false
	}
	return true
}

// Stats are the three daily metrics, each in [0,100].
type Stats struct {
	Love     int `json:"love"`
	Career   int `json:"career"`
	Vitality int `json:"vitality"`
}

// InRange reports whether every stat sits inside [0,100].
func (s Stats) InRange() bool {
	for _, v := range []int{s.Love, s.Career, s.Vitality} {
		if v < 0 || v > 100 {
			return false
		}
	}
	return true
}

// DailyPrediction is a complete generation result. A record either fully
// parses or the pipeline substitutes a complete simulated record; partial
// records never circulate.
type DailyPrediction struct {
	Headline      string `json:"headline"`
	Insight       string `json:"insight"`
	PowerColor    string `json:"powerColor"`
	PowerColorHex string `json:"powerColorHex"`
	Stats         Stats  `json:"stats"`
}

// HistoryEntry is one archived prediction. Entries are immutable once
// appended.
type HistoryEntry struct {
	ID         string          `json:"id"`
	IdentityID string          `json:"-"`
	Timestamp  time.Time       `json:"timestamp"`
	Prediction DailyPrediction `json:"prediction"`
}
