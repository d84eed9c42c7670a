package accountant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rawblock/goldrush-engine/internal/pipeline"
	"github.com/rawblock/goldrush-engine/internal/ratelimit"
	"github.com/rawblock/goldrush-engine/internal/wireclient"
	"github.com/rawblock/goldrush-engine/pkg/model"
)

func newTestLimiter() *ratelimit.Phased {
	return ratelimit.NewPhased(nil, ratelimit.New(0, 0), ratelimit.New(0, 0))
}

func TestCashInSendsCoinsOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(model.CoinList{1, 2, 3})
	}))
	defer srv.Close()

	client := wireclient.New(srv.URL, ratelimit.New(0, 0), nil)
	treasures := make(chan model.Treasure, 1)
	cash := pipeline.NewUnbounded[model.CoinList]()
	p := New(client, newTestLimiter(), time.Second, treasures, cash)

	p.cashIn(context.Background(), model.Treasure("tok"))

	select {
	case coins := <-cash.Recv():
		if len(coins) != 3 {
			t.Fatalf("got %d coins, want 3", len(coins))
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for coins on CASH")
	}
}

func TestCashInRequeuesOnTransientFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := wireclient.New(srv.URL, ratelimit.New(0, 0), nil)
	treasures := make(chan model.Treasure, 1)
	cash := pipeline.NewUnbounded[model.CoinList]()
	p := New(client, newTestLimiter(), time.Second, treasures, cash)

	p.cashIn(context.Background(), model.Treasure("tok"))

	select {
	case got := <-treasures:
		if got != "tok" {
			t.Errorf("requeued treasure = %q, want %q", got, "tok")
		}
	case <-time.After(time.Second):
		t.Fatal("expected the treasure to be requeued")
	}
}

func TestCashInDropsOnNonRetryableFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	client := wireclient.New(srv.URL, ratelimit.New(0, 0), nil)
	treasures := make(chan model.Treasure, 1)
	cash := pipeline.NewUnbounded[model.CoinList]()
	p := New(client, newTestLimiter(), time.Second, treasures, cash)

	p.cashIn(context.Background(), model.Treasure("tok"))

	select {
	case got := <-treasures:
		t.Fatalf("expected the treasure to be dropped, got requeued: %v", got)
	case <-time.After(100 * time.Millisecond):
	}
}
