package zodiac

import (
	"testing"
	"time"
)

func TestResolveBoundaries(t *testing.T) {
	tests := []struct {
		name string
		dob  string
		want Sign
	}{
		{"sagittarius last day", "1990-12-21", Sagittarius},
		{"capricorn first day", "1990-12-22", Capricorn},
		{"capricorn last day", "1991-01-19", Capricorn},
		{"aquarius first day", "1991-01-20", Aquarius},
		{"aries first day", "1990-03-21", Aries},
		{"aries last day", "1990-04-19", Aries},
		{"taurus first day", "1990-04-20", Taurus},
		{"leo mid range", "1990-08-01", Leo},
		{"pisces last day", "1990-03-20", Pisces},
		{"scorpio last day", "1990-11-21", Scorpio},
		{"sagittarius first day", "1990-11-22", Sagittarius},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.dob); got != tt.want {
				t.Errorf("Resolve(%q) = %v, want %v", tt.dob, got, tt.want)
			}
		})
	}
}

func TestResolveNeverFails(t *testing.T) {
	tests := []struct {
		name string
		dob  string
	}{
		{"empty", ""},
		{"garbage", "not-a-date"},
		{"wrong layout", "15/07/1990"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.dob); got != Aries {
				t.Errorf("Resolve(%q) = %v, want fallback %v", tt.dob, got, Aries)
			}
		})
	}
}

// Every (month, day) pair of a leap year must map to exactly one sign.
func TestResolveCoversFullYear(t *testing.T) {
	counts := make(map[Sign]int)
	start := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < 366; d++ {
		day := start.AddDate(0, 0, d)
		sign := ResolveDate(day.Month(), day.Day())
		found := false
		for _, s := range All() {
			if s == sign {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("ResolveDate(%v, %d) returned unknown sign %q", day.Month(), day.Day(), sign)
		}
		counts[sign]++
	}

	if len(counts) != 12 {
		t.Errorf("year covered %d signs, want 12", len(counts))
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total != 366 {
		t.Errorf("mapped %d days, want 366", total)
	}
}
