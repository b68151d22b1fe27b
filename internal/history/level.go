package history

import (
	"math"

	"github.com/dyprodg/callpulse/internal/types"
)

// Indicator symbols shown next to each classification tier.
const (
	indicatorBelowNormal = "🔽"
	indicatorNormal      = "✅"
	indicatorHigh        = "🔼"
	indicatorVeryHigh    = "🚨"
)

// ClassifyLevel buckets a current metric against its baseline mean.
// ratio = current/mean*100 rounded; a zero mean makes the ratio undefined
// regardless of the current value.
func ClassifyLevel(current, mean int) types.Classification {
	c := types.Classification{Current: current, Mean: mean}
	if mean == 0 {
		c.Level = types.LevelUndefined
		c.Indicator = ""
		return c
	}

	c.Defined = true
	c.Ratio = int(math.Round(float64(current) / float64(mean) * 100))

	switch {
	case c.Ratio < 70:
		c.Level = types.LevelBelowNormal
		c.Indicator = indicatorBelowNormal
	case c.Ratio < 100:
		c.Level = types.LevelNormal
		c.Indicator = indicatorNormal
	case c.Ratio < 130:
		c.Level = types.LevelHigh
		c.Indicator = indicatorHigh
	default:
		c.Level = types.LevelVeryHigh
		c.Indicator = indicatorVeryHigh
	}
	return c
}

// LevelLabel is the human wording for a tier, used in summaries.
func LevelLabel(level types.Level) string {
	switch level {
	case types.LevelBelowNormal:
		return "below normal"
	case types.LevelNormal:
		return "normal"
	case types.LevelHigh:
		return "high"
	case types.LevelVeryHigh:
		return "very high"
	default:
		return "undefined"
	}
}
