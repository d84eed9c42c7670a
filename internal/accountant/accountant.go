// Package accountant implements the Accountant pool of spec.md §4.5: it
// redeems Treasures at the cash endpoint and deposits the resulting
// CoinLists onto CASH. A Treasure whose cash-in attempt fails transiently
// is requeued onto TREASURES rather than dropped.
package accountant

import (
	"context"
	"time"

	"github.com/rawblock/goldrush-engine/internal/logging"
	"github.com/rawblock/goldrush-engine/internal/pipeline"
	"github.com/rawblock/goldrush-engine/internal/ratelimit"
	"github.com/rawblock/goldrush-engine/internal/wireclient"
	"github.com/rawblock/goldrush-engine/pkg/model"
)

// Pool is a fixed-size group of Accountant workers.
type Pool struct {
	Client  *wireclient.Client
	Limiter *ratelimit.Phased
	Timeout time.Duration

	Treasures chan model.Treasure // also the requeue target on transient failure
	Cash      *pipeline.Unbounded[model.CoinList]

	log *logging.Logger
}

// New builds an Accountant Pool. Call Run to start its workers.
func New(client *wireclient.Client, limiter *ratelimit.Phased, timeout time.Duration, treasures chan model.Treasure, cash *pipeline.Unbounded[model.CoinList]) *Pool {
	return &Pool{
		Client:    client,
		Limiter:   limiter,
		Timeout:   timeout,
		Treasures: treasures,
		Cash:      cash,
		log:       logging.New("Accountant"),
	}
}

// Run starts n worker goroutines.
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
		case treasure, ok := <-p.Treasures:
			if !ok {
				return
			}
			p.cashIn(ctx, treasure)
		}
	}
}

// cashIn redeems one Treasure. On a non-retryable failure (the server
// considers this Treasure invalid — already cashed, unknown) it is
// dropped; any other failure puts it back on TREASURES for another
// Accountant to retry (spec.md §4.5, §7).
func (p *Pool) cashIn(ctx context.Context, treasure model.Treasure) {
	if err := p.Limiter.Acquire(ctx); err != nil {
		return
	}
	coins, err := p.Client.Cash(ctx, p.Timeout, treasure)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if !wireclient.IsRetryable(err) {
			p.log.Warnf("treasure rejected permanently: %v", err)
			return
		}
		p.log.Debugf("cash-in failed, requeuing: %v", err)
		select {
		case <-ctx.Done():
		case p.Treasures <- treasure:
		}
		return
	}
	p.Cash.Send(coins)
}
