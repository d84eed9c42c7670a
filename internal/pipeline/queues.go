// Package pipeline defines the seven named queues of spec.md §2
// (AREAS, TILES, LICENSES, EMPTY_LICENSES, TREASURES, CASH, METRICS) and
// the generic unbounded queue CASH uses.
package pipeline

import (
	"github.com/rawblock/goldrush-engine/internal/metrics"
	"github.com/rawblock/goldrush-engine/pkg/model"
)

// Queues holds every typed channel the pipeline's worker pools read from
// and write to. AREAS/TILES/LICENSES/EMPTY_LICENSES/TREASURES are bounded
// (back-pressure throttles producers); CASH is unbounded (spec.md §2).
// METRICS is the sink's own buffered channel: it holds up to the buffer
// size passed to metrics.NewSink, and producers block once it is full.
type Queues struct {
	Areas         chan model.Tile // seeder -> Explorer; Tile carries the Area with amount=0
	Tiles         chan model.Tile // Explorer -> Digger; point-Tiles with amount>0
	Licenses      chan model.License
	EmptyLicenses chan model.License
	Treasures     chan model.Treasure

	Cash    *Unbounded[model.CoinList]
	Metrics *metrics.Sink
}

// Capacities configures the bounded queues' buffer sizes.
type Capacities struct {
	Areas, Tiles, Licenses, EmptyLicenses, Treasures int
}

// New builds the seven named queues with the given bounded capacities.
// The metrics sink's channel is buffered at 4096 events; it is not
// unbounded.
func New(cap Capacities) *Queues {
	return &Queues{
		Areas:         make(chan model.Tile, cap.Areas),
		Tiles:         make(chan model.Tile, cap.Tiles),
		Licenses:      make(chan model.License, cap.Licenses),
		EmptyLicenses: make(chan model.License, cap.EmptyLicenses),
		Treasures:     make(chan model.Treasure, cap.Treasures),
		Cash:          NewUnbounded[model.CoinList](),
		Metrics:       metrics.NewSink(4096),
	}
}

// Depths reports the current length of each bounded queue plus the two
// unbounded queues' approximate sizes, for the stats renderer (spec.md §6).
type Depths struct {
	Areas, Tiles, Licenses, EmptyLicenses, Treasures, Cash, Metrics int
}

func (q *Queues) Depths() Depths {
	return Depths{
		Areas:         len(q.Areas),
		Tiles:         len(q.Tiles),
		Licenses:      len(q.Licenses),
		EmptyLicenses: len(q.EmptyLicenses),
		Treasures:     len(q.Treasures),
		Cash:          q.Cash.Len(),
		Metrics:       len(q.Metrics.In()),
	}
}
