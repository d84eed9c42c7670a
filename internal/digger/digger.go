// Package digger implements the Digger pool of spec.md §4.4: for each
// point-Tile from TILES it digs depth 1 upward, taking a fresh License from
// LICENSES for every depth attempt, until the tile's remaining treasure
// amount reaches zero or MaxDepth is exceeded. Treasures found below
// MinDepth are discarded (kept only by a probability roll at exactly
// MinDepth); a License is returned to LICENSES if it still has uses left,
// or to EMPTY_LICENSES once exhausted or lost to a non-retryable server
// error.
package digger

import (
	"context"
	"math/rand"
	"time"

	"github.com/rawblock/goldrush-engine/internal/logging"
	"github.com/rawblock/goldrush-engine/internal/metrics"
	"github.com/rawblock/goldrush-engine/internal/ratelimit"
	"github.com/rawblock/goldrush-engine/internal/wireclient"
	"github.com/rawblock/goldrush-engine/pkg/model"
)

// Pool is a fixed-size group of Digger workers.
type Pool struct {
	Client  *wireclient.Client
	Limiter *ratelimit.Phased
	Timeout time.Duration
	Sink    *metrics.Sink

	MinDepth            int
	MaxDepth            int
	MinDepthProbabilityPct int // chance of keeping a treasure found at exactly MinDepth

	Tiles         <-chan model.Tile
	Licenses      chan model.License // Digger both takes from and returns to LICENSES
	EmptyLicenses chan<- model.License
	Treasures     chan<- model.Treasure

	log *logging.Logger
}

// New builds a Digger Pool. Call Run to start its workers.
func New(client *wireclient.Client, limiter *ratelimit.Phased, timeout time.Duration, sink *metrics.Sink, minDepth, maxDepth, minDepthProbabilityPct int, tiles <-chan model.Tile, licenses chan model.License, emptyLicenses chan<- model.License, treasures chan<- model.Treasure) *Pool {
	return &Pool{
		Client:                 client,
		Limiter:                limiter,
		Timeout:                timeout,
		Sink:                   sink,
		MinDepth:               minDepth,
		MaxDepth:               maxDepth,
		MinDepthProbabilityPct: minDepthProbabilityPct,
		Tiles:                  tiles,
		Licenses:               licenses,
		EmptyLicenses:          emptyLicenses,
		Treasures:              treasures,
		log:                    logging.New("Digger"),
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
		tile, ok := p.recvTile(ctx)
		if !ok {
			return
		}
		p.digTile(ctx, tile)
	}
}

func (p *Pool) recvTile(ctx context.Context) (model.Tile, bool) {
	select {
	case <-ctx.Done():
		return model.Tile{}, false
	case t, ok := <-p.Tiles:
		return t, ok
	}
}

func (p *Pool) recvLicense(ctx context.Context) (model.License, bool) {
	select {
	case <-ctx.Done():
		return model.License{}, false
	case l, ok := <-p.Licenses:
		return l, ok
	}
}

// digTile walks depth 1 upward for tile's position, taking a fresh License
// from LICENSES for every depth attempt (spec.md §4.4 step 1), until the
// tile's remaining treasure amount reaches zero or depth exceeds MaxDepth.
// A treasure found below MinDepth is discarded rather than reported; at
// exactly MinDepth it survives only on a probability roll, and past
// MinDepth it always survives (spec.md §4.4).
func (p *Pool) digTile(ctx context.Context, tile model.Tile) {
	remaining := tile.Amount
	depth := 1
	for depth <= p.MaxDepth && remaining > 0 {
		lic, ok := p.recvLicense(ctx)
		if !ok {
			return
		}

		treasures, err := p.digOnce(ctx, tile, depth, lic.ID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !wireclient.IsRetryable(err) {
				// A business-semantic failure (e.g. the license itself was
				// rejected) means this License is no longer trustworthy;
				// it never gets another use.
				p.emitLicenseLost()
				p.discard(ctx, lic)
				return
			}
			p.log.Warnf("dig at (%d,%d) depth %d failed: %v", tile.Area.PosX, tile.Area.PosY, depth, err)
			p.recycle(ctx, lic) // unused; hand it back and retry the same depth
			continue
		}

		lic.DigUsed++
		p.recycle(ctx, lic)

		for _, t := range treasures {
			if remaining == 0 {
				break
			}
			remaining--
			if !p.keepAtDepth(depth) {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case p.Treasures <- t:
			}
		}

		depth++
	}
}

func (p *Pool) digOnce(ctx context.Context, tile model.Tile, depth int, licenseID uint64) ([]model.Treasure, error) {
	if err := p.Limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	return p.Client.Dig(ctx, p.Timeout, model.Dig{
		PosX:      tile.Area.PosX,
		PosY:      tile.Area.PosY,
		Depth:     depth,
		LicenseID: licenseID,
	})
}

// keepAtDepth reports whether a treasure found at depth should be kept,
// per spec.md §4.4's min-depth gate: never below MinDepth, always above
// it, and at exactly MinDepth only on a probability roll.
func (p *Pool) keepAtDepth(depth int) bool {
	if depth < p.MinDepth {
		return false
	}
	if depth > p.MinDepth {
		return true
	}
	if p.MinDepthProbabilityPct <= 0 {
		return false
	}
	if p.MinDepthProbabilityPct >= 100 {
		return true
	}
	return rand.Intn(100) < p.MinDepthProbabilityPct
}

// recycle returns lic to LICENSES if it still has uses left, or to
// EMPTY_LICENSES once exhausted, for the Attorney pool to replace.
func (p *Pool) recycle(ctx context.Context, lic model.License) {
	if lic.Exhausted() {
		p.discard(ctx, lic)
		return
	}
	select {
	case <-ctx.Done():
	case p.Licenses <- lic:
	}
}

// discard hands lic to EMPTY_LICENSES unconditionally — used once a
// License is exhausted or rejected by the server and must not be reused.
func (p *Pool) discard(ctx context.Context, lic model.License) {
	select {
	case <-ctx.Done():
	case p.EmptyLicenses <- lic:
	}
}

func (p *Pool) emitLicenseLost() {
	if p.Sink == nil {
		return
	}
	p.Sink.Emit(metrics.Event{Stage: metrics.StageDig, LicenseLostToError: true})
}
