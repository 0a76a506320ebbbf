package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"solana-lp-watch/internal/solana"
)

type fakeRPC struct {
	calls   int
	results []fetchResult
}

type fetchResult struct {
	tx  *solana.Transaction
	err error
}

func (f *fakeRPC) GetTransaction(ctx context.Context, signature string) (*solana.Transaction, error) {
	if f.calls >= len(f.results) {
		return nil, errors.New("no more results")
	}
	r := f.results[f.calls]
	f.calls++
	return r.tx, r.err
}

func noSleep(time.Duration) {}

func TestFetchTransaction_EventualSuccess(t *testing.T) {
	tx := &solana.Transaction{Signature: "sig"}
	rpc := &fakeRPC{results: []fetchResult{
		{nil, nil}, // not found yet
		{nil, errors.New("transient")},
		{tx, nil},
	}}

	got, err := fetchTransaction(context.Background(), rpc, "sig", noSleep)
	if err != nil {
		t.Fatalf("fetchTransaction: %v", err)
	}
	if got != tx {
		t.Error("expected the fetched transaction")
	}
	if rpc.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", rpc.calls)
	}
}

func TestFetchTransaction_Exhausted(t *testing.T) {
	rpc := &fakeRPC{results: []fetchResult{
		{nil, nil},
		{nil, nil},
		{nil, nil},
	}}

	_, err := fetchTransaction(context.Background(), rpc, "sig", noSleep)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if rpc.calls != fetchMaxRetries {
		t.Errorf("expected %d attempts, got %d", fetchMaxRetries, rpc.calls)
	}
}

func TestFetchTransaction_RetryDelays(t *testing.T) {
	var delays []time.Duration
	rpc := &fakeRPC{results: []fetchResult{
		{nil, nil},
		{nil, nil},
		{nil, nil},
	}}

	fetchTransaction(context.Background(), rpc, "sig", func(d time.Duration) {
		delays = append(delays, d)
	})

	want := []time.Duration{500 * time.Millisecond, 1 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected %d sleeps, got %d", len(want), len(delays))
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("sleep %d: expected %v, got %v", i, want[i], delays[i])
		}
	}
}

func TestFetchTransaction_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rpc := &fakeRPC{results: []fetchResult{{nil, nil}}}

	_, err := fetchTransaction(ctx, rpc, "sig", noSleep)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
