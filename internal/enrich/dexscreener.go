// Package enrich augments decoded liquidity additions with market
// metadata from external lookup services.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// DefaultDexScreenerURL is the public DexScreener API base.
const DefaultDexScreenerURL = "https://api.dexscreener.com"

// PairInfo is the market snapshot for one trading pair.
type PairInfo struct {
	Symbol         string
	Name           string
	MarketCapUSD   float64
	LiquidityUSD   float64
	LiquidityBase  float64
	LiquidityQuote float64
	PriceUSD       float64
	PriceNative    float64
	PairCreatedAt  time.Time // zero if unknown
	URL            string
}

// PairResolver looks up market data for a token mint.
type PairResolver interface {
	// ResolvePair returns the most liquid SOL-quoted pair for the
	// mint, or (nil, nil) when none exists yet.
	ResolvePair(ctx context.Context, mint string) (*PairInfo, error)
}

// DexScreenerClient implements PairResolver against the DexScreener
// token endpoint.
type DexScreenerClient struct {
	baseURL string
	client  *http.Client
}

// DexScreenerOptions configures a DexScreenerClient.
type DexScreenerOptions struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewDexScreenerClient creates a DexScreener API client.
func NewDexScreenerClient(opts DexScreenerOptions) *DexScreenerClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultDexScreenerURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &DexScreenerClient{baseURL: baseURL, client: client}
}

type dexPairsResponse struct {
	Pairs []dexPair `json:"pairs"`
}

type dexPair struct {
	ChainID   string `json:"chainId"`
	URL       string `json:"url"`
	BaseToken struct {
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
	} `json:"baseToken"`
	QuoteToken struct {
		Symbol string `json:"symbol"`
	} `json:"quoteToken"`
	PriceUSD    string  `json:"priceUsd"`
	PriceNative string  `json:"priceNative"`
	MarketCap   float64 `json:"marketCap"`
	FDV         float64 `json:"fdv"`
	Liquidity   struct {
		USD   float64 `json:"usd"`
		Base  float64 `json:"base"`
		Quote float64 `json:"quote"`
	} `json:"liquidity"`
	PairCreatedAt int64 `json:"pairCreatedAt"` // Unix ms
}

// ResolvePair fetches all pairs for the mint and picks the most liquid
// Solana pair quoted in SOL or WSOL.
func (c *DexScreenerClient) ResolvePair(ctx context.Context, mint string) (*PairInfo, error) {
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, mint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed dexPairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var best *dexPair
	for i := range parsed.Pairs {
		p := &parsed.Pairs[i]
		if p.ChainID != "solana" {
			continue
		}
		if p.QuoteToken.Symbol != "SOL" && p.QuoteToken.Symbol != "WSOL" {
			continue
		}
		if best == nil || p.Liquidity.USD > best.Liquidity.USD {
			best = p
		}
	}
	if best == nil {
		return nil, nil
	}

	info := &PairInfo{
		Symbol:         best.BaseToken.Symbol,
		Name:           best.BaseToken.Name,
		MarketCapUSD:   best.MarketCap,
		LiquidityUSD:   best.Liquidity.USD,
		LiquidityBase:  best.Liquidity.Base,
		LiquidityQuote: best.Liquidity.Quote,
		URL:            best.URL,
	}
	if info.MarketCapUSD == 0 {
		info.MarketCapUSD = best.FDV
	}
	if v, err := strconv.ParseFloat(best.PriceUSD, 64); err == nil {
		info.PriceUSD = v
	}
	if v, err := strconv.ParseFloat(best.PriceNative, 64); err == nil {
		info.PriceNative = v
	}
	if best.PairCreatedAt > 0 {
		info.PairCreatedAt = time.UnixMilli(best.PairCreatedAt)
	}
	return info, nil
}
