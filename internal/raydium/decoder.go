// Package raydium decodes Raydium AMM V4 liquidity instructions from
// confirmed Solana transactions.
package raydium

import (
	"encoding/base64"
	"io"
	"log"
	"sort"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"solana-lp-watch/internal/domain"
	"solana-lp-watch/internal/solana"
)

// Raydium AMM V4 program and well-known mints.
const (
	AMMV4Program = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	WSOLMint     = "So11111111111111111111111111111111111111112"
)

const (
	LamportsPerSOL = 1_000_000_000

	// MinQuoteDeltaLamports is the noise floor: SOL movements below
	// 0.1 SOL are fee/rent churn, not liquidity additions.
	MinQuoteDeltaLamports = 100_000_000
)

// InstructionType classifies an AMM V4 instruction by its first data
// byte.
type InstructionType int

const (
	TypeUnknown InstructionType = iota
	TypeInitialize
	TypeInitialize2
	TypeDeposit
	TypeWithdraw
	TypeSwap

	// TypeUnknownLP is an unrecognized discriminator on an instruction
	// whose account count looks like a liquidity operation.
	TypeUnknownLP
)

func (t InstructionType) String() string {
	switch t {
	case TypeInitialize:
		return "initialize"
	case TypeInitialize2:
		return "initialize2"
	case TypeDeposit:
		return "deposit"
	case TypeWithdraw:
		return "withdraw"
	case TypeSwap:
		return "swap"
	case TypeUnknownLP:
		return "unknown_lp"
	default:
		return "unknown"
	}
}

// Decoder extracts liquidity additions from confirmed transactions.
type Decoder struct {
	logger *log.Logger
}

// DecoderOptions configures a Decoder.
type DecoderOptions struct {
	Logger *log.Logger
}

// NewDecoder creates a Decoder.
func NewDecoder(opts DecoderOptions) *Decoder {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Decoder{logger: logger}
}

// Decode reconstructs a liquidity addition from a confirmed
// transaction. Returns nil when the transaction is not a liquidity
// addition this watcher cares about: failed transactions, withdrawals,
// swaps, additions below the noise floor, and transactions where no
// pool could be identified all come back nil. Decode never returns a
// partially filled result.
func (d *Decoder) Decode(tx *solana.Transaction) *domain.LiquidityAddition {
	if tx == nil || tx.Meta == nil || tx.Message == nil {
		return nil
	}
	if tx.Meta.Err != nil {
		return nil
	}

	instr := findProgramInstruction(tx, AMMV4Program)
	if instr == nil {
		return nil
	}

	itype := classifyInstruction(*instr)
	switch itype {
	case TypeInitialize, TypeInitialize2, TypeDeposit, TypeUnknownLP:
	default:
		return nil
	}

	pool, lpMint, tokenMint, quoteMint := extractAccounts(*instr, itype)
	if pool == "" {
		pool, tokenMint = poolFromTokenBalances(tx.Meta.PostTokenBalances)
	}
	if pool == "" {
		d.logger.Printf("decode %s: no pool account identified", tx.Signature)
		return nil
	}
	if quoteMint == "" {
		quoteMint = WSOLMint
	}

	solDelta, solBefore, solAfter := largestLamportIncrease(tx.Meta.PreBalances, tx.Meta.PostBalances)
	if solDelta <= 0 {
		return nil
	}
	if solDelta < MinQuoteDeltaLamports {
		return nil
	}

	tokenDelta, tokenMint := largestTokenIncrease(tx.Meta.PreTokenBalances, tx.Meta.PostTokenBalances, tokenMint)
	lpMinted := mintIncrease(tx.Meta.PreTokenBalances, tx.Meta.PostTokenBalances, lpMint)

	fact := &domain.LiquidityAddition{
		Signature:          tx.Signature,
		PoolAddress:        pool,
		TokenMint:          tokenMint,
		QuoteMint:          quoteMint,
		TokenAmount:        tokenDelta,
		QuoteAmountSOL:     float64(solDelta) / LamportsPerSOL,
		LPTokensMinted:     lpMinted,
		LiquidityBeforeSOL: float64(solBefore) / LamportsPerSOL,
		LiquidityAfterSOL:  float64(solAfter) / LamportsPerSOL,
		IsPoolCreation:     itype == TypeInitialize || itype == TypeInitialize2,
		Slot:               tx.Slot,
	}
	if tx.BlockTime != nil {
		fact.BlockTime = *tx.BlockTime
	}
	return fact
}

// findProgramInstruction returns the first instruction invoking the
// program, checking top-level instructions before CPI.
func findProgramInstruction(tx *solana.Transaction, program string) *solana.Instruction {
	for i := range tx.Message.Instructions {
		if tx.Message.Instructions[i].ProgramID == program {
			return &tx.Message.Instructions[i]
		}
	}
	for _, inner := range tx.Meta.InnerInstructions {
		for i := range inner.Instructions {
			if inner.Instructions[i].ProgramID == program {
				return &inner.Instructions[i]
			}
		}
	}
	return nil
}

// classifyInstruction decodes instruction data (base58, falling back
// to base64) and classifies by the first byte.
func classifyInstruction(in solana.Instruction) InstructionType {
	data, err := base58.Decode(in.Data)
	if err != nil || len(data) == 0 {
		data, err = base64.StdEncoding.DecodeString(in.Data)
	}
	if err != nil || len(data) == 0 {
		if len(in.Accounts) >= 10 {
			return TypeUnknownLP
		}
		return TypeUnknown
	}

	switch data[0] {
	case 0:
		return TypeInitialize
	case 1:
		return TypeInitialize2
	case 3:
		return TypeDeposit
	case 4:
		return TypeWithdraw
	case 9:
		return TypeSwap
	default:
		if len(in.Accounts) >= 10 {
			return TypeUnknownLP
		}
		return TypeUnknown
	}
}

// extractAccounts maps instruction account positions to pool metadata.
// Account layouts follow the AMM V4 program:
//
//	initialize/initialize2: 3=pool 6=lpMint 7=tokenMint 8=quoteMint 9=tokenVault 10=quoteVault
//	deposit:                1=pool 5=lpMint 6=tokenVault 7=quoteVault
func extractAccounts(in solana.Instruction, itype InstructionType) (pool, lpMint, tokenMint, quoteMint string) {
	at := func(i int) string {
		if i >= 0 && i < len(in.Accounts) {
			return in.Accounts[i]
		}
		return ""
	}

	switch itype {
	case TypeInitialize, TypeInitialize2:
		return at(3), at(6), at(7), at(8)
	case TypeDeposit:
		return at(1), at(5), "", ""
	case TypeUnknownLP:
		for _, i := range []int{0, 1, 3} {
			if a := at(i); a != "" {
				return a, "", "", ""
			}
		}
	}
	return "", "", "", ""
}

// poolFromTokenBalances recovers the pool address from post token
// balances when instruction accounts gave nothing usable. The pool
// authority is the owner of the largest WSOL vault; program-derived
// owners (off the ed25519 curve) are preferred over wallets. A token
// vault under the same owner with a different mint identifies the base
// token.
func poolFromTokenBalances(post []solana.TokenBalance) (pool, tokenMint string) {
	var wsol []solana.TokenBalance
	for _, b := range post {
		if b.Mint == WSOLMint && b.Owner != "" {
			wsol = append(wsol, b)
		}
	}
	if len(wsol) == 0 {
		return "", ""
	}

	sort.Slice(wsol, func(i, j int) bool {
		return wsol[i].UIAmount > wsol[j].UIAmount
	})

	pool = wsol[0].Owner
	for _, b := range wsol {
		if isOffCurve(b.Owner) {
			pool = b.Owner
			break
		}
	}

	for _, b := range post {
		if b.Owner == pool && b.Mint != WSOLMint && b.Mint != "" {
			tokenMint = b.Mint
			break
		}
	}
	return pool, tokenMint
}

// isOffCurve reports whether the address is not a valid ed25519 point,
// which is true for program-derived addresses.
func isOffCurve(address string) bool {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = (&edwards25519.Point{}).SetBytes(raw)
	return err != nil
}

// largestLamportIncrease finds the single account with the largest
// positive lamport delta and returns its delta, pre and post balances.
func largestLamportIncrease(pre, post []uint64) (delta int64, before, after uint64) {
	n := len(pre)
	if len(post) < n {
		n = len(post)
	}
	for i := 0; i < n; i++ {
		d := int64(post[i]) - int64(pre[i])
		if d > delta {
			delta = d
			before = pre[i]
			after = post[i]
		}
	}
	return delta, before, after
}

// largestTokenIncrease finds the largest positive uiAmount increase
// for the base token. When the token mint is unknown, any non-WSOL
// mint qualifies and the chosen mint is returned.
func largestTokenIncrease(pre, post []solana.TokenBalance, tokenMint string) (float64, string) {
	preByIdx := make(map[int]float64, len(pre))
	for _, b := range pre {
		preByIdx[b.AccountIndex] = b.UIAmount
	}

	var best float64
	bestMint := tokenMint
	for _, b := range post {
		if tokenMint != "" {
			if b.Mint != tokenMint {
				continue
			}
		} else if b.Mint == WSOLMint {
			continue
		}
		inc := b.UIAmount - preByIdx[b.AccountIndex]
		if inc > best {
			best = inc
			bestMint = b.Mint
		}
	}
	return best, bestMint
}

// mintIncrease sums positive uiAmount increases for the given mint.
func mintIncrease(pre, post []solana.TokenBalance, mint string) float64 {
	if mint == "" {
		return 0
	}
	preByIdx := make(map[int]float64, len(pre))
	for _, b := range pre {
		if b.Mint == mint {
			preByIdx[b.AccountIndex] = b.UIAmount
		}
	}

	var total float64
	for _, b := range post {
		if b.Mint != mint {
			continue
		}
		if inc := b.UIAmount - preByIdx[b.AccountIndex]; inc > 0 {
			total += inc
		}
	}
	return total
}
