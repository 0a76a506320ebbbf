package filter

import "time"

// Thresholds holds the tunable limits for the early-stage gates.
type Thresholds struct {
	// MinIgniteSOL is the minimum SOL added for a near-zero pool to
	// count as ignition.
	MinIgniteSOL float64

	// NearZeroBaselineSOL is the baseline below which a pool is
	// considered effectively empty before the add.
	NearZeroBaselineSOL float64

	// HardRejectBaselineSOL is the baseline above which the ignition
	// gate fails outright.
	HardRejectBaselineSOL float64

	// HardRejectPairAge blocks pairs older than this.
	HardRejectPairAge time.Duration

	// PreferredPairAge is the upper edge of the sweet spot window.
	PreferredPairAge time.Duration

	// HardRejectMarketCapUSD rejects tokens already past discovery.
	HardRejectMarketCapUSD float64

	// SignalWindow is how long observed signals stay relevant.
	SignalWindow time.Duration

	// RequireMultiSignal enables the corroboration gate.
	RequireMultiSignal bool

	// MinSignalsRequired is the number of distinct signal types needed
	// for corroboration.
	MinSignalsRequired int

	// LegacyMemes are token symbols denied outright: established meme
	// coins whose pools are never early-stage.
	LegacyMemes map[string]bool
}

// DefaultThresholds returns the production gate limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinIgniteSOL:           300,
		NearZeroBaselineSOL:    10,
		HardRejectBaselineSOL:  20,
		HardRejectPairAge:      24 * time.Hour,
		PreferredPairAge:       6 * time.Hour,
		HardRejectMarketCapUSD: 20_000_000,
		SignalWindow:           30 * time.Minute,
		RequireMultiSignal:     true,
		MinSignalsRequired:     2,
		LegacyMemes:            defaultLegacyMemes(),
	}
}

func defaultLegacyMemes() map[string]bool {
	return map[string]bool{
		"BONK":     true,
		"WIF":      true,
		"DOGE":     true,
		"SHIB":     true,
		"PEPE":     true,
		"FLOKI":    true,
		"BABYDOGE": true,
		"MOON":     true,
		"SAMO":     true,
		"KING":     true,
		"MONKY":    true,
	}
}
