package solana

import "context"

// RPCClient defines the Solana JSON-RPC operations used by the watcher.
type RPCClient interface {
	// GetTransaction fetches a confirmed transaction by signature with
	// jsonParsed encoding. Returns (nil, nil) if the transaction is not
	// found yet (common right after a logs notification).
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)
}

// Transaction is a confirmed transaction with the metadata needed to
// reconstruct balance deltas.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime *int64 // Unix timestamp, nil if unavailable
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta holds execution results and balance snapshots.
type TransactionMeta struct {
	Err               interface{} // nil on success
	LogMessages       []string
	PreBalances       []uint64 // lamports, index-aligned with account keys
	PostBalances      []uint64
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
	InnerInstructions []InnerInstructions
}

// TokenBalance is one SPL token account balance snapshot.
type TokenBalance struct {
	AccountIndex int
	Mint         string
	Owner        string
	UIAmount     float64 // 0 when the node reports null
}

// InnerInstructions groups CPI instructions by the index of the
// top-level instruction that invoked them.
type InnerInstructions struct {
	Index        int
	Instructions []Instruction
}

// Instruction is a single instruction with account keys resolved to
// base58 addresses.
type Instruction struct {
	ProgramID string
	Accounts  []string
	Data      string // base58-encoded instruction data
}

// TransactionMessage holds the account key table and top-level
// instructions.
type TransactionMessage struct {
	AccountKeys  []string
	Instructions []Instruction
}
