package generator

import (
	"time"

	"github.com/aetheria-app/aetheria/internal/domain/horoscope"
	"github.com/aetheria-app/aetheria/internal/locale"
)

// Mock is the deterministic simulated generator. It needs no network and no
// configuration, so the pipeline can always reach a complete prediction.
// Output is stable within one calendar day for the same name.
type Mock struct {
	now func() time.Time
}

// NewMock creates a simulated generator using the wall clock.
func NewMock() *Mock {
	return &Mock{now: time.Now}
}

// NewMockWithClock creates a simulated generator with an injected clock.
func NewMockWithClock(now func() time.Time) *Mock {
	return &Mock{now: now}
}

// Generate synthesizes a complete prediction from the user's attributes and
// the current date. It is total: any UserData yields a valid record.
func (m *Mock) Generate(user horoscope.UserData, loc locale.Locale) horoscope.DailyPrediction {
	seed := len(user.Name) + m.now().Day()

	headlines := locale.MockHeadlines(loc)
	insights := locale.MockInsights(loc)
	colors := locale.MockColors(loc)

	color := colors[seed%len(colors)]

	return horoscope.DailyPrediction{
		Headline:      headlines[seed%len(headlines)],
		Insight:       insights[seed%len(insights)] + locale.T(loc, locale.KeyMockDisclaimer),
		PowerColor:    color.Name,
		PowerColorHex: color.Hex,
		Stats: horoscope.Stats{
			Love:     60 + seed*3%40,
			Career:   50 + seed*7%50,
			Vitality: 70 + seed*2%30,
		},
	}
}
