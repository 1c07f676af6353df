package horoscope

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON returns the first balanced {...} substring of text. Model
// output regularly wraps the payload in prose or a fenced code block, so
// the parser scans for the object instead of trusting the whole body.
func ExtractJSON(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in response")
}

// rawPrediction mirrors DailyPrediction with pointer fields so missing
// keys are distinguishable from zero values.
type rawPrediction struct {
	Headline      *string `json:"headline"`
	Insight       *string `json:"insight"`
	PowerColor    *string `json:"powerColor"`
	PowerColorHex *string `json:"powerColorHex"`
	Stats         *struct {
		Love     *int `json:"love"`
		Career   *int `json:"career"`
		Vitality *int `json:"vitality"`
	} `json:"stats"`
}

// ParsePrediction validates the full required-field set of a decoded JSON
// object before accepting it. Any missing or mistyped field rejects the
// whole record.
func ParsePrediction(data string) (DailyPrediction, error) {
	var raw rawPrediction
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return DailyPrediction{}, fmt.Errorf("decode prediction: %w", err)
	}

	if raw.Headline == nil || *raw.Headline == "" {
		return DailyPrediction{}, fmt.Errorf("prediction missing headline")
	}
	if raw.Insight == nil || *raw.Insight == "" {
		return DailyPrediction{}, fmt.Errorf("prediction missing insight")
	}
	if raw.PowerColor == nil || *raw.PowerColor == "" {
		return DailyPrediction{}, fmt.Errorf("prediction missing powerColor")
	}
	if raw.PowerColorHex == nil || *raw.PowerColorHex == "" {
		return DailyPrediction{}, fmt.Errorf("prediction missing powerColorHex")
	}
	if raw.Stats == nil || raw.Stats.Love == nil || raw.Stats.Career == nil || raw.Stats.Vitality == nil {
		return DailyPrediction{}, fmt.Errorf("prediction missing stats")
	}

	p := DailyPrediction{
		Headline:      *raw.Headline,
		Insight:       *raw.Insight,
		PowerColor:    *raw.PowerColor,
		PowerColorHex: *raw.PowerColorHex,
		Stats: Stats{
			Love:     *raw.Stats.Love,
			Career:   *raw.Stats.Career,
			Vitality: *raw.Stats.Vitality,
		},
	}

	if !p.Stats.InRange() {
		return DailyPrediction{}, fmt.Errorf("prediction stats out of range: %+v", p.Stats)
	}

	return p, nil
}
