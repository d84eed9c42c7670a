// Package attorney implements the Attorney pool of spec.md §4.3: it turns
// recycled empty Licenses and CoinLists into fresh, usable Licenses,
// preferring a free license attempt before spending coins, and applying
// optimal_split (spec.md §4.3.1) to pick how many coins to offer.
package attorney

import (
	"context"
	"math/rand"
	"time"

	"github.com/rawblock/goldrush-engine/internal/logging"
	"github.com/rawblock/goldrush-engine/internal/pipeline"
	"github.com/rawblock/goldrush-engine/internal/ratelimit"
	"github.com/rawblock/goldrush-engine/internal/wireclient"
	"github.com/rawblock/goldrush-engine/pkg/model"
)

// Pool is a fixed-size group of Attorney workers sharing one coin budget
// (the CASH queue), one wire client and one phase-aware rate limiter.
type Pool struct {
	Client  *wireclient.Client
	Limiter *ratelimit.Phased
	Timeout time.Duration

	MinCost              int
	MaxCost              int
	FreeLicenseProbabilityPct int // 0-100

	Cash          *pipeline.Unbounded[model.CoinList]
	EmptyLicenses <-chan model.License
	Licenses      chan<- model.License

	log *logging.Logger
}

// New builds an Attorney Pool. Call Run to start its workers.
func New(client *wireclient.Client, limiter *ratelimit.Phased, timeout time.Duration, minCost, maxCost, freeProbabilityPct int, cash *pipeline.Unbounded[model.CoinList], emptyLicenses <-chan model.License, licenses chan<- model.License) *Pool {
	return &Pool{
		Client:                    client,
		Limiter:                   limiter,
		Timeout:                   timeout,
		MinCost:                   minCost,
		MaxCost:                   maxCost,
		FreeLicenseProbabilityPct: freeProbabilityPct,
		Cash:                      cash,
		EmptyLicenses:             emptyLicenses,
		Licenses:                  licenses,
		log:                       logging.New("Attorney"),
	}
}

// Run starts n worker goroutines, each recycling EMPTY_LICENSES into
// LICENSES until ctx is cancelled.
func (p *Pool) Run(ctx context.Context, n int) {
	for i := 0; i < n; i++ {
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-p.EmptyLicenses:
			if !ok {
				return
			}
			lic, ok := p.acquire(ctx)
			if !ok {
				return
			}
			select {
			case <-ctx.Done():
				return
			case p.Licenses <- lic:
			}
		}
	}
}

// acquire obtains one fresh License, retrying on transient failure. Each
// attempt is either free or paid, decided by one rollFree coin-flip gated
// by FreeLicenseProbabilityPct (spec.md §4.3); a paid attempt is funded
// from CASH and goes out unpaid when CASH is empty. It recovers from a 402
// by drawing more coins rather than giving up (spec.md §7). ok is false
// only when ctx has been cancelled.
func (p *Pool) acquire(ctx context.Context) (model.License, bool) {
	for {
		if ctx.Err() != nil {
			return model.License{}, false
		}

		var payment model.CoinList
		if !p.rollFree() {
			// If CASH is empty right now, degrade to a free attempt instead
			// of blocking the whole pool waiting for coins (spec.md §4.3
			// step 3).
			if coins, ok := p.draw(); ok {
				payment = coins
			}
		}

		if err := p.Limiter.Acquire(ctx); err != nil {
			return model.License{}, false
		}
		lic, err := p.Client.AcquireLicense(ctx, p.Timeout, payment)
		if err == nil {
			return lic, true
		}

		we, isWire := err.(*wireclient.WireError)
		if isWire && we.Status == 402 {
			// Payment Required: the offered coins were insufficient. Spend
			// them (they are gone either way) and try again with a fresh
			// draw next iteration.
			p.log.Debugf("license payment of %d coins rejected (402), retrying", len(payment))
			continue
		}
		if !wireclient.IsRetryable(err) {
			p.log.Warnf("license acquisition failed with non-retryable error: %v", err)
			continue
		}

		select {
		case <-ctx.Done():
			return model.License{}, false
		case <-time.After(20 * time.Millisecond):
		}
	}
}

// rollFree decides whether this attempt should be a free (unpaid) license
// request, per spec.md §4.3's configurable free-license probability.
func (p *Pool) rollFree() bool {
	if p.FreeLicenseProbabilityPct <= 0 {
		return false
	}
	if p.FreeLicenseProbabilityPct >= 100 {
		return true
	}
	return rand.Intn(100) < p.FreeLicenseProbabilityPct
}

// draw non-blockingly takes one CoinList off CASH and splits it down via
// OptimalSplit (spec.md §4.3.1) to the configured min/max license cost,
// returning any unspent remainder back onto CASH for the next Attorney. ok
// is false when CASH currently has nothing queued, in which case the caller
// falls back to a free-license attempt rather than stalling the pool
// (spec.md §4.3 step 3).
func (p *Pool) draw() (model.CoinList, bool) {
	select {
	case coins := <-p.Cash.Recv():
		offer, remainder := OptimalSplit(coins, p.MinCost, p.MaxCost)
		if len(remainder) > 0 {
			p.Cash.Send(remainder)
		}
		return offer, true
	default:
		return nil, false
	}
}

// licenseTiers lists the license cost tiers the server offers, richest
// first (spec.md §4.3.1).
var licenseTiers = []int{21, 11, 6, 1}

// OptimalSplit picks the richest tier affordable with len(coins) coins,
// clamps it into [minCost, maxCost], and caps it at what's actually on
// hand, per spec.md §4.3.1. For example with 7 coins and max=5, min=1: the
// richest affordable tier is 6, clamped down to 5.
func OptimalSplit(coins model.CoinList, minCost, maxCost int) (offer, remainder model.CoinList) {
	if minCost <= 0 {
		minCost = 1
	}
	if maxCost < minCost {
		maxCost = minCost
	}

	size := 0
	for _, tier := range licenseTiers {
		if len(coins) >= tier {
			size = tier
			break
		}
	}
	if size < minCost {
		size = minCost
	}
	if size > maxCost {
		size = maxCost
	}
	if size >= len(coins) {
		return coins, nil
	}
	return coins[:size], coins[size:]
}
