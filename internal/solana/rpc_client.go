package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new Solana RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with retries and exponential backoff.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// GetTransaction retrieves a transaction by signature with jsonParsed
// encoding, so instruction accounts arrive as base58 pubkeys.
func (c *HTTPClient) GetTransaction(ctx context.Context, signature string) (*Transaction, error) {
	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "jsonParsed",
			"maxSupportedTransactionVersion": 0,
		},
	}

	var result getTransactionResult
	if err := c.call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}

	if result.Slot == 0 && result.BlockTime == nil {
		// Transaction not found
		return nil, nil
	}

	return result.toTransaction(signature), nil
}

// getTransactionResult is the raw RPC response for getTransaction.
type getTransactionResult struct {
	Slot        int64               `json:"slot"`
	BlockTime   *int64              `json:"blockTime"`
	Meta        *getTransactionMeta `json:"meta"`
	Transaction *getTransactionTx   `json:"transaction"`
}

type getTransactionMeta struct {
	Err               interface{}           `json:"err"`
	LogMessages       []string              `json:"logMessages"`
	PreBalances       []uint64              `json:"preBalances"`
	PostBalances      []uint64              `json:"postBalances"`
	PreTokenBalances  []rawTokenBalance     `json:"preTokenBalances"`
	PostTokenBalances []rawTokenBalance     `json:"postTokenBalances"`
	InnerInstructions []rawInnerInstruction `json:"innerInstructions"`
}

type getTransactionTx struct {
	Message *getTransactionMessage `json:"message"`
}

type getTransactionMessage struct {
	AccountKeys  []rawAccountKey  `json:"accountKeys"`
	Instructions []rawInstruction `json:"instructions"`
}

// rawAccountKey accepts both wire shapes: a plain base58 string or a
// jsonParsed record with a "pubkey" field.
type rawAccountKey struct {
	Pubkey string
}

func (k *rawAccountKey) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &k.Pubkey)
	}
	var rec struct {
		Pubkey string `json:"pubkey"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	k.Pubkey = rec.Pubkey
	return nil
}

// rawInstructionAccount accepts a base58 pubkey or a numeric index into
// the account key table.
type rawInstructionAccount struct {
	Pubkey string
	Index  int
	IsIdx  bool
}

func (a *rawInstructionAccount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &a.Pubkey)
	}
	n, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil {
		return fmt.Errorf("instruction account: %w", err)
	}
	a.Index = n
	a.IsIdx = true
	return nil
}

func (a rawInstructionAccount) resolve(keys []string) string {
	if !a.IsIdx {
		return a.Pubkey
	}
	if a.Index >= 0 && a.Index < len(keys) {
		return keys[a.Index]
	}
	return ""
}

type rawInstruction struct {
	ProgramID      string                  `json:"programId"`
	ProgramIDIndex *int                    `json:"programIdIndex"`
	Data           string                  `json:"data"`
	Accounts       []rawInstructionAccount `json:"accounts"`
}

func (in rawInstruction) resolve(keys []string) Instruction {
	out := Instruction{
		ProgramID: in.ProgramID,
		Data:      in.Data,
	}
	if out.ProgramID == "" && in.ProgramIDIndex != nil {
		if idx := *in.ProgramIDIndex; idx >= 0 && idx < len(keys) {
			out.ProgramID = keys[idx]
		}
	}
	for _, acc := range in.Accounts {
		out.Accounts = append(out.Accounts, acc.resolve(keys))
	}
	return out
}

type rawInnerInstruction struct {
	Index        int              `json:"index"`
	Instructions []rawInstruction `json:"instructions"`
}

type rawTokenBalance struct {
	AccountIndex  int    `json:"accountIndex"`
	Mint          string `json:"mint"`
	Owner         string `json:"owner"`
	UITokenAmount struct {
		UIAmount *float64 `json:"uiAmount"`
	} `json:"uiTokenAmount"`
}

func (b rawTokenBalance) toTokenBalance() TokenBalance {
	tb := TokenBalance{
		AccountIndex: b.AccountIndex,
		Mint:         b.Mint,
		Owner:        b.Owner,
	}
	if b.UITokenAmount.UIAmount != nil {
		tb.UIAmount = *b.UITokenAmount.UIAmount
	}
	return tb
}

func (r *getTransactionResult) toTransaction(signature string) *Transaction {
	tx := &Transaction{
		Slot:      r.Slot,
		Signature: signature,
		BlockTime: r.BlockTime,
	}

	var keys []string
	if r.Transaction != nil && r.Transaction.Message != nil {
		for _, k := range r.Transaction.Message.AccountKeys {
			keys = append(keys, k.Pubkey)
		}
		msg := &TransactionMessage{AccountKeys: keys}
		for _, in := range r.Transaction.Message.Instructions {
			msg.Instructions = append(msg.Instructions, in.resolve(keys))
		}
		tx.Message = msg
	}

	if r.Meta != nil {
		meta := &TransactionMeta{
			Err:          r.Meta.Err,
			LogMessages:  r.Meta.LogMessages,
			PreBalances:  r.Meta.PreBalances,
			PostBalances: r.Meta.PostBalances,
		}
		for _, b := range r.Meta.PreTokenBalances {
			meta.PreTokenBalances = append(meta.PreTokenBalances, b.toTokenBalance())
		}
		for _, b := range r.Meta.PostTokenBalances {
			meta.PostTokenBalances = append(meta.PostTokenBalances, b.toTokenBalance())
		}
		for _, inner := range r.Meta.InnerInstructions {
			group := InnerInstructions{Index: inner.Index}
			for _, in := range inner.Instructions {
				group.Instructions = append(group.Instructions, in.resolve(keys))
			}
			meta.InnerInstructions = append(meta.InnerInstructions, group)
		}
		tx.Meta = meta
	}

	return tx
}
