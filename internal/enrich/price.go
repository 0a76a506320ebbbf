package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"
)

// Default price service endpoints and behavior.
const (
	DefaultJupiterURL   = "https://price.jup.ag/v6"
	DefaultCoinGeckoURL = "https://api.coingecko.com"

	// DefaultPriceTTL is how long a fetched SOL price stays fresh.
	DefaultPriceTTL = 60 * time.Second

	// FallbackSOLPrice is the last-resort price when every source
	// fails and no cached value exists. USD conversions stay rough
	// rather than breaking the pipeline.
	FallbackSOLPrice = 200.0
)

// PriceService returns the current SOL/USD price. It caches results
// and falls back through sources; it never fails. Safe for concurrent
// use.
type PriceService struct {
	jupiterURL   string
	coinGeckoURL string
	client       *http.Client
	ttl          time.Duration
	logger       *log.Logger
	now          func() time.Time

	mu        sync.Mutex
	cached    float64
	fetchedAt time.Time
}

// PriceServiceOptions configures a PriceService.
type PriceServiceOptions struct {
	JupiterURL   string
	CoinGeckoURL string
	HTTPClient   *http.Client
	TTL          time.Duration
	Logger       *log.Logger
}

// NewPriceService creates a SOL price service.
func NewPriceService(opts PriceServiceOptions) *PriceService {
	s := &PriceService{
		jupiterURL:   opts.JupiterURL,
		coinGeckoURL: opts.CoinGeckoURL,
		client:       opts.HTTPClient,
		ttl:          opts.TTL,
		logger:       opts.Logger,
		now:          time.Now,
	}
	if s.jupiterURL == "" {
		s.jupiterURL = DefaultJupiterURL
	}
	if s.coinGeckoURL == "" {
		s.coinGeckoURL = DefaultCoinGeckoURL
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: 10 * time.Second}
	}
	if s.ttl == 0 {
		s.ttl = DefaultPriceTTL
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	return s
}

// SOLPrice returns the SOL/USD price: cached if fresh, otherwise
// Jupiter, then CoinGecko, then the stale cache, then a hardcoded
// fallback.
func (s *PriceService) SOLPrice(ctx context.Context) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached > 0 && s.now().Sub(s.fetchedAt) < s.ttl {
		return s.cached
	}

	if price, err := s.fetchJupiter(ctx); err == nil {
		s.cached = price
		s.fetchedAt = s.now()
		return price
	} else {
		s.logger.Printf("jupiter price fetch failed: %v", err)
	}

	if price, err := s.fetchCoinGecko(ctx); err == nil {
		s.cached = price
		s.fetchedAt = s.now()
		return price
	} else {
		s.logger.Printf("coingecko price fetch failed: %v", err)
	}

	if s.cached > 0 {
		return s.cached
	}
	return FallbackSOLPrice
}

func (s *PriceService) fetchJupiter(ctx context.Context) (float64, error) {
	var parsed struct {
		Data map[string]struct {
			Price float64 `json:"price"`
		} `json:"data"`
	}
	if err := s.getJSON(ctx, s.jupiterURL+"/price?ids=SOL", &parsed); err != nil {
		return 0, err
	}
	entry, ok := parsed.Data["SOL"]
	if !ok || entry.Price <= 0 {
		return 0, fmt.Errorf("no SOL price in response")
	}
	return entry.Price, nil
}

func (s *PriceService) fetchCoinGecko(ctx context.Context) (float64, error) {
	var parsed struct {
		Solana struct {
			USD float64 `json:"usd"`
		} `json:"solana"`
	}
	url := s.coinGeckoURL + "/api/v3/simple/price?ids=solana&vs_currencies=usd"
	if err := s.getJSON(ctx, url, &parsed); err != nil {
		return 0, err
	}
	if parsed.Solana.USD <= 0 {
		return 0, fmt.Errorf("no solana price in response")
	}
	return parsed.Solana.USD, nil
}

func (s *PriceService) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
