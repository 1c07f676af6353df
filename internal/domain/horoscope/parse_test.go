package horoscope

import (
	"strings"
	"testing"
)

const validPayload = `{
	"headline": "Фокус на главном",
	"insight": "Хороший день для завершения дел.",
	"powerColor": "Золотистый",
	"powerColorHex": "#FFD700",
	"stats": {"love": 70, "career": 55, "vitality": 90}
}`

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{
			name: "bare object",
			text: `{"a":1}`,
			want: `{"a":1}`,
		},
		{
			name: "fenced code block",
			text: "```json\n{\"a\":1}\n```",
			want: `{"a":1}`,
		},
		{
			name: "wrapped in prose",
			text: `Here is your horoscope: {"a":{"b":2}} Enjoy!`,
			want: `{"a":{"b":2}}`,
		},
		{
			name: "braces inside strings",
			text: `{"a":"{not a nested object}"}`,
			want: `{"a":"{not a nested object}"}`,
		},
		{
			name:    "no object",
			text:    "the stars are silent",
			wantErr: true,
		},
		{
			name:    "unbalanced",
			text:    `{"a": {"b": 1}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePrediction(t *testing.T) {
	p, err := ParsePrediction(validPayload)
	if err != nil {
		t.Fatalf("ParsePrediction() error = %v", err)
	}
	if p.Headline != "Фокус на главном" {
		t.Errorf("headline = %q", p.Headline)
	}
	if p.Stats.Vitality != 90 {
		t.Errorf("vitality = %d, want 90", p.Stats.Vitality)
	}
}

func TestParsePredictionRejectsPartialRecords(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(string) string
	}{
		{"missing headline", func(s string) string {
			return strings.Replace(s, `"headline": "Фокус на главном",`, "", 1)
		}},
		{"empty insight", func(s string) string {
			return strings.Replace(s, "Хороший день для завершения дел.", "", 1)
		}},
		{"missing stats", func(s string) string {
			return strings.Replace(s, `"stats": {"love": 70, "career": 55, "vitality": 90}`, `"stats": null`, 1)
		}},
		{"missing one stat", func(s string) string {
			return strings.Replace(s, `"vitality": 90`, `"power": 90`, 1)
		}},
		{"stat out of range", func(s string) string {
			return strings.Replace(s, `"vitality": 90`, `"vitality": 140`, 1)
		}},
		{"mistyped stat", func(s string) string {
			return strings.Replace(s, `"vitality": 90`, `"vitality": "high"`, 1)
		}},
		{"not json", func(s string) string { return "nope" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePrediction(tt.mutate(validPayload)); err == nil {
				t.Error("ParsePrediction() accepted a partial record")
			}
		})
	}
}

func TestUserDataComplete(t *testing.T) {
	full := UserData{
		Name:      "Anna",
		DOB:       "1990-07-15",
		TOB:       "08:30",
		Element:   ElementFire,
		Archetype: ArchetypeSage,
		Feeling:   FeelingEnergetic,
	}
	if !full.Complete() {
		t.Error("Complete() = false for fully populated user data")
	}

	tests := []struct {
		name   string
		mutate func(UserData) UserData
	}{
		{"no name", func(u UserData) UserData { u.Name = ""; return u }},
		{"no dob", func(u UserData) UserData { u.DOB = ""; return u }},
		{"no element", func(u UserData) UserData { u.Element = ""; return u }},
		{"no archetype", func(u UserData) UserData { u.Archetype = ""; return u }},
		{"no feeling", func(u UserData) UserData { u.Feeling = ""; return u }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := tt.mutate(full)
			if u.Complete() {
				t.Error("Complete() = true with a required field missing")
			}
		})
	}
}

func TestUserDataNormalize(t *testing.T) {
	u := UserData{Name: "  anna ", DOB: "1990-07-15"}
	u.Normalize()
	if u.Name != "Anna" {
		t.Errorf("Name = %q, want %q", u.Name, "Anna")
	}
	if u.ZodiacSign != "Cancer" {
		t.Errorf("ZodiacSign = %q, want Cancer", u.ZodiacSign)
	}
}
