// Package explorer implements the Explorer pool of spec.md §4.2: it reads
// coarse Areas off AREAS, narrows each down to point-Tiles with a known
// treasure count via recursive probing, and publishes the resulting
// point-Tiles onto TILES. The probe/search/split_to_tiles algorithm is
// spec.md §4.2.1; Go's goroutines recurse natively so search is a plain
// recursive function (see SPEC_FULL.md §4.2).
package explorer

import (
	"context"
	"time"

	"github.com/rawblock/goldrush-engine/internal/logging"
	"github.com/rawblock/goldrush-engine/internal/ratelimit"
	"github.com/rawblock/goldrush-engine/internal/wireclient"
	"github.com/rawblock/goldrush-engine/pkg/model"
)

const (
	initialBackoff = 20 * time.Millisecond
	maxBackoff     = 1 * time.Second
)

// Pool is a fixed-size group of Explorer workers sharing one search
// configuration, one wire client and one phase-aware rate limiter.
type Pool struct {
	Client  *wireclient.Client
	Limiter *ratelimit.Phased
	Timeout time.Duration

	// MinAmountTop is the minimum treasure count a top-level search will
	// pursue (spec.md §4.2); recursive sub-searches use a fixed floor of 1.
	MinAmountTop uint64

	BinaryEnabled bool
	FlatThreshold uint64
	FlatSize      uint64

	Areas <-chan model.Tile
	Tiles chan<- model.Tile

	log *logging.Logger
}

// New builds an Explorer Pool. Call Run to start its workers.
func New(client *wireclient.Client, limiter *ratelimit.Phased, timeout time.Duration, minAmountTop uint64, binaryEnabled bool, flatThreshold, flatSize uint64, areas <-chan model.Tile, tiles chan<- model.Tile) *Pool {
	return &Pool{
		Client:        client,
		Limiter:       limiter,
		Timeout:       timeout,
		MinAmountTop:  minAmountTop,
		BinaryEnabled: binaryEnabled,
		FlatThreshold: flatThreshold,
		FlatSize:      flatSize,
		Areas:         areas,
		Tiles:         tiles,
		log:           logging.New("Explorer"),
	}
}

// Run starts n worker goroutines, each pulling Areas off p.Areas until ctx
// is cancelled or the channel is closed.
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
		case area, ok := <-p.Areas:
			if !ok {
				return
			}
			results, err := p.search(ctx, area, true)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				p.log.Warnf("search over %+v failed: %v", area.Area, err)
				continue
			}
			for _, t := range results {
				select {
				case <-ctx.Done():
					return
				case p.Tiles <- t:
				}
			}
		}
	}
}

// probe issues /explore for area, retrying indefinitely (with a capped
// exponential backoff between attempts) until it succeeds or ctx is done —
// spec.md §4.2: a failed probe is always worth retrying, never abandoned.
func (p *Pool) probe(ctx context.Context, area model.Area) (model.Tile, error) {
	backoff := initialBackoff
	for {
		if err := p.Limiter.Acquire(ctx); err != nil {
			return model.Tile{}, err
		}
		tile, err := p.Client.Explore(ctx, p.Timeout, area)
		if err == nil {
			return tile, nil
		}
		if ctx.Err() != nil {
			return model.Tile{}, ctx.Err()
		}
		select {
		case <-ctx.Done():
			return model.Tile{}, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// search narrows tile down to the point-Tiles it decomposes into, per
// spec.md §4.2.1. top selects the top-level minimum-amount threshold;
// recursive calls always use a floor of 1.
func (p *Pool) search(ctx context.Context, tile model.Tile, top bool) ([]model.Tile, error) {
	if tile.Amount == 0 {
		probed, err := p.probe(ctx, tile.Area)
		if err != nil {
			return nil, err
		}
		tile = probed
	}

	threshold := uint64(1)
	if top {
		threshold = p.MinAmountTop
	}
	if tile.Amount < threshold {
		return nil, nil
	}

	if tile.Area.IsPoint() {
		return []model.Tile{tile}, nil
	}

	if p.BinaryEnabled && tile.Area.SizeX > p.FlatThreshold {
		return p.searchBinary(ctx, tile)
	}
	return p.searchFlat(ctx, tile)
}

// searchBinary halves tile's area along X, searches the left half,
// deduces the right half's amount from what is left over, and searches
// the right half only if anything remains — skipping a probe on it
// entirely (spec.md §4.2.1).
func (p *Pool) searchBinary(ctx context.Context, tile model.Tile) ([]model.Tile, error) {
	half := tile.Area.SizeX / 2
	left := model.Area{PosX: tile.Area.PosX, PosY: tile.Area.PosY, SizeX: half, SizeY: tile.Area.SizeY}
	right := model.Area{PosX: tile.Area.PosX + half, PosY: tile.Area.PosY, SizeX: tile.Area.SizeX - half, SizeY: tile.Area.SizeY}

	leftResults, err := p.search(ctx, model.Tile{Area: left}, false)
	if err != nil {
		return leftResults, err
	}

	remaining := subAmount(tile.Amount, sumAmounts(leftResults))
	if remaining == 0 {
		return leftResults, nil
	}

	rightResults, err := p.search(ctx, model.Tile{Area: right, Amount: remaining}, false)
	if err != nil {
		return append(leftResults, rightResults...), err
	}
	return append(leftResults, rightResults...), nil
}

// searchFlat splits tile's area into a sequence of fixed-width sub-tiles
// (split_to_tiles, spec.md §4.2.1), probing each in turn and deducting its
// found amount from the parent's running total. The last sub-tile is never
// probed: whatever amount remains is assigned to it directly, and search
// stops as soon as nothing is left to find.
func (p *Pool) searchFlat(ctx context.Context, tile model.Tile) ([]model.Tile, error) {
	tileSize := p.flatTileSize(tile.Area.SizeX)
	subareas := splitToTiles(tile.Area, tileSize)

	var results []model.Tile
	remaining := tile.Amount
	for i, sub := range subareas {
		if remaining == 0 {
			break
		}
		last := i == len(subareas)-1

		var got []model.Tile
		var err error
		if last {
			got, err = p.search(ctx, model.Tile{Area: sub, Amount: remaining}, false)
			remaining = 0
		} else {
			got, err = p.search(ctx, model.Tile{Area: sub}, false)
			remaining = subAmount(remaining, sumAmounts(got))
		}
		results = append(results, got...)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// flatTileSize picks the sub-tile width for the flat regime (spec.md
// §4.2.1): small areas split down to single cells, very large areas
// (reached only when binary splitting is disabled) fall back to
// FlatThreshold-wide chunks, everything else uses FlatSize.
func (p *Pool) flatTileSize(sizeX uint64) uint64 {
	switch {
	case sizeX <= p.FlatSize:
		return 1
	case !p.BinaryEnabled && sizeX > p.FlatThreshold:
		return p.FlatThreshold
	default:
		return p.FlatSize
	}
}

// splitToTiles partitions area's X-extent into consecutive sub-areas of
// width tileSize, followed by one width-1 sub-area per unit of remainder
// when area.SizeX does not divide evenly by tileSize (spec.md §4.2.1). For
// example splitting a width-17 area at tileSize 3 yields five width-3 tiles
// followed by two width-1 tiles, not one width-2 tile.
func splitToTiles(area model.Area, tileSize uint64) []model.Area {
	if tileSize == 0 {
		tileSize = 1
	}
	var out []model.Area
	x := area.PosX
	full := area.SizeX / tileSize
	remainder := area.SizeX % tileSize
	for i := uint64(0); i < full; i++ {
		out = append(out, model.Area{PosX: x, PosY: area.PosY, SizeX: tileSize, SizeY: area.SizeY})
		x += tileSize
	}
	for i := uint64(0); i < remainder; i++ {
		out = append(out, model.Area{PosX: x, PosY: area.PosY, SizeX: 1, SizeY: area.SizeY})
		x++
	}
	return out
}

func sumAmounts(tiles []model.Tile) uint64 {
	var total uint64
	for _, t := range tiles {
		total += t.Amount
	}
	return total
}

// subAmount is a ≥0 floor subtraction: the server is the source of truth
// for amounts, but a noisy split (e.g. a probe raced by a competitor
// digging the same tile) should never be allowed to wrap a uint64 negative.
func subAmount(total, consumed uint64) uint64 {
	if consumed >= total {
		return 0
	}
	return total - consumed
}
