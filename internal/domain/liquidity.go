package domain

// LiquidityAddition is the decoder's terminal output: one confirmed
// liquidity addition on a Raydium AMM V4 pool, reconstructed from
// instruction accounts and pre/post balance deltas.
type LiquidityAddition struct {
	Signature   string // Solana transaction signature
	PoolAddress string // AMM pool address
	TokenMint   string // base token mint address
	QuoteMint   string // quote mint, usually WSOL

	TokenAmount    float64 // token units added (uiAmount)
	QuoteAmountSOL float64 // SOL received by the quote vault
	LPTokensMinted float64 // LP mint increase, 0 if LP mint unknown

	LiquidityBeforeSOL float64 // quote vault balance before the add
	LiquidityAfterSOL  float64 // quote vault balance after the add

	IsPoolCreation bool // true for initialize/initialize2

	Slot      int64
	BlockTime int64 // Unix timestamp (seconds), 0 if unknown
}
