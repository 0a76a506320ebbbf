package domain

import "time"

// Alert type constants.
const (
	AlertTypeLPAdd = "lp_add"
)

// Run mode constants.
const (
	ModeLive = "LIVE"
	ModeTest = "TEST"
)

// AlertRecord is one processed liquidity addition persisted for review,
// whether or not it passed the early-stage filters.
// Corresponds to the alerts table in PostgreSQL.
type AlertRecord struct {
	ID          string // UUID primary key
	Type        string // "lp_add"
	Chain       string // "solana"
	Pair        string // "SYMBOL/SOL"
	TokenMint   string
	PoolAddress string
	TxSignature string

	ValueSOL float64 // SOL added in this event
	ValueUSD float64

	LPSOLBefore float64
	LPSOLAfter  float64

	MarketCapUSD float64
	PairAgeHours float64

	IsNewPool bool
	Passed    bool   // early-stage filter result
	Priority  string // "HIGH" | "MEDIUM" | "LOW" | ""

	Mode string // LIVE or TEST

	TriggeredAt time.Time
	CreatedAt   time.Time
}

// DecisionRecord is one filter decision with its full checks audit
// trail, archived to ClickHouse for offline review.
type DecisionRecord struct {
	TxSignature string
	Pair        string
	TokenMint   string

	LPAddedSOL  float64
	LPBeforeSOL float64

	ShouldAlert    bool
	Priority       string
	IgnitionPassed bool

	// Parallel arrays, one entry per gate evaluated.
	CheckRules    []string
	CheckStatuses []string
	CheckReasons  []string

	TriggeredAt time.Time
}
