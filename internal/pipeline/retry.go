package pipeline

import (
	"context"
	"fmt"
	"time"

	"solana-lp-watch/internal/solana"
)

// Transaction fetch retry schedule. Confirmed transactions are often
// not queryable for a moment after their logs notification arrives.
const (
	fetchMaxRetries     = 3
	fetchBaseRetryDelay = 500 * time.Millisecond
)

// fetchTransaction fetches a transaction, retrying with exponential
// backoff when it is not yet available.
func fetchTransaction(ctx context.Context, client solana.RPCClient, signature string, sleep func(time.Duration)) (*solana.Transaction, error) {
	var lastErr error

	for attempt := 0; attempt < fetchMaxRetries; attempt++ {
		if attempt > 0 {
			delay := fetchBaseRetryDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
				sleep(delay)
			}
		}

		tx, err := client.GetTransaction(ctx, signature)
		if err != nil {
			lastErr = err
			continue
		}
		if tx == nil {
			lastErr = fmt.Errorf("transaction %s not available yet", signature)
			continue
		}
		return tx, nil
	}

	return nil, fmt.Errorf("fetch transaction %s: %w", signature, lastErr)
}
