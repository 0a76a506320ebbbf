package filter

import (
	"math"
	"time"
)

// Quality classifies how convincing a liquidity addition is as a sign
// of real commitment to a new pool.
type Quality string

const (
	// QualityReal is a large add into a near-empty young pool.
	QualityReal Quality = "real_commitment"

	// QualityBorderline sits between commitment and rotation; alerts
	// go out but are worth a second look.
	QualityBorderline Quality = "borderline"

	// QualityRotation looks like liquidity moving between established
	// pools; suppressed at delivery.
	QualityRotation Quality = "rotation"
)

// Classification bands.
const (
	qualityRealBaselineSOL  = 10.0
	qualityRealMultiplier   = 15.0
	qualityRealMinAddSOL    = 150.0
	qualityBorderBaseline   = 30.0
	qualityBorderMultiplier = 5.0
)

const (
	qualityRealMaxAge   = 6 * time.Hour
	qualityBorderMaxAge = 12 * time.Hour
)

// ClassifyQuality grades a liquidity addition. A zero baseline yields
// an infinite multiplier, so any sizeable add into an empty pool
// counts toward real commitment. Unknown pair age never qualifies as
// real commitment.
func ClassifyQuality(baselineSOL, addedSOL float64, age time.Duration, ageKnown bool) Quality {
	multiplier := math.Inf(1)
	if baselineSOL > 0 {
		multiplier = addedSOL / baselineSOL
	}

	if baselineSOL <= qualityRealBaselineSOL &&
		(multiplier >= qualityRealMultiplier || addedSOL >= qualityRealMinAddSOL) &&
		ageKnown && age <= qualityRealMaxAge {
		return QualityReal
	}

	if baselineSOL > qualityRealBaselineSOL && baselineSOL <= qualityBorderBaseline {
		return QualityBorderline
	}
	if multiplier >= qualityBorderMultiplier && multiplier < qualityRealMultiplier {
		return QualityBorderline
	}
	if ageKnown && age > qualityRealMaxAge && age <= qualityBorderMaxAge {
		return QualityBorderline
	}

	return QualityRotation
}
