package pipeline

import "strings"

// Log keyword lists for the cheap pre-filter. Matching runs against
// the lowercased concatenation of all log lines.
var (
	liquidityKeywords = []string{
		"initialize",
		"deposit",
		"add liquidity",
		"create pool",
		"liquidity",
	}

	excludeKeywords = []string{
		"withdraw",
		"remove",
		"swap",
	}
)

// LooksLikeLiquidityAddition decides from log text alone whether a
// transaction is worth fetching. It must contain at least one
// liquidity keyword and none of the exclusions.
func LooksLikeLiquidityAddition(logs []string) bool {
	if len(logs) == 0 {
		return false
	}
	joined := strings.ToLower(strings.Join(logs, " "))

	for _, kw := range excludeKeywords {
		if strings.Contains(joined, kw) {
			return false
		}
	}
	for _, kw := range liquidityKeywords {
		if strings.Contains(joined, kw) {
			return true
		}
	}
	return false
}
