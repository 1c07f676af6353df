// Package zodiac maps birth dates to the twelve calendar signs.
package zodiac

import "time"

// Sign is one of the twelve zodiac signs.
type Sign string

const (
	Aries       Sign = "Aries"
	Taurus      Sign = "Taurus"
	Gemini      Sign = "Gemini"
	Cancer      Sign = "Cancer"
	Leo         Sign = "Leo"
	Virgo       Sign = "Virgo"
	Libra       Sign = "Libra"
	Scorpio     Sign = "Scorpio"
	Sagittarius Sign = "Sagittarius"
	Capricorn   Sign = "Capricorn"
	Aquarius    Sign = "Aquarius"
	Pisces      Sign = "Pisces"
)

// DateLayout is the wire format for birth dates.
const DateLayout = "2006-01-02"

type dateRange struct {
	sign       Sign
	startMonth time.Month
	startDay   int
	endMonth   time.Month
	endDay     int
}

// Ranges are closed at both ends. Capricorn wraps the year boundary and is
// handled by the month-match checks below rather than a numeric compare.
var ranges = []dateRange{
	{Capricorn, time.December, 22, time.January, 19},
	{Aquarius, time.January, 20, time.February, 18},
	{Pisces, time.February, 19, time.March, 20},
	{Aries, time.March, 21, time.April, 19},
	{Taurus, time.April, 20, time.May, 20},
	{Gemini, time.May, 21, time.June, 20},
	{Cancer, time.June, 21, time.July, 22},
	{Leo, time.July, 23, time.August, 22},
	{Virgo, time.August, 23, time.September, 22},
	{Libra, time.September, 23, time.October, 22},
	{Scorpio, time.October, 23, time.November, 21},
	{Sagittarius, time.November, 22, time.December, 21},
}

// Resolve maps a birth date in DateLayout format to a sign. It never fails:
// an empty or unparseable date resolves to Aries so onboarding can always
// proceed.
func Resolve(dob string) Sign {
	if dob == "" {
		return Aries
	}
	t, err := time.Parse(DateLayout, dob)
	if err != nil {
		return Aries
	}
	return ResolveDate(t.Month(), t.Day())
}

// ResolveDate maps a (month, day) pair to a sign.
func ResolveDate(month time.Month, day int) Sign {
	for _, r := range ranges {
		if r.startMonth == month && day >= r.startDay {
			return r.sign
		}
		if r.endMonth == month && day <= r.endDay {
			return r.sign
		}
	}
	// Unreachable for valid calendar dates: the table covers the year.
	return Capricorn
}

// All returns the twelve signs in calendar order starting from Aries.
func All() []Sign {
	return []Sign{
		Aries, Taurus, Gemini, Cancer, Leo, Virgo,
		Libra, Scorpio, Sagittarius, Capricorn, Aquarius, Pisces,
	}
}
