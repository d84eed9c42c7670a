// Package seeder tiles the world into initial rows and feeds them to the
// Explorer pool, per spec.md §4.1.
package seeder

import (
	"context"

	"github.com/rawblock/goldrush-engine/internal/logging"
	"github.com/rawblock/goldrush-engine/pkg/model"
)

// Run tiles the world of side worldSize into rows of width rowWidth and
// height 1, scanning y from 0 to worldSize-1 and x in steps of rowWidth,
// sending each as a Tile with amount=0 to areas. It exits once the world
// is exhausted; AREAS back-pressure is the only throttle (spec.md §4.1 —
// no retries, the seeder is not retried on any failure it could have).
func Run(ctx context.Context, worldSize, rowWidth uint64, areas chan<- model.Tile) {
	log := logging.New("Seeder")
	if rowWidth == 0 || rowWidth > worldSize {
		log.Warnf("row width %d exceeds world size %d; nothing to seed", rowWidth, worldSize)
		return
	}

	count := 0
	for y := uint64(0); y < worldSize; y++ {
		for x := uint64(0); x+rowWidth <= worldSize; x += rowWidth {
			tile := model.Tile{
				Area: model.Area{
					PosX:  x,
					PosY:  y,
					SizeX: rowWidth,
					SizeY: 1,
				},
			}
			select {
			case <-ctx.Done():
				log.Infof("stopping after seeding %d areas", count)
				return
			case areas <- tile:
				count++
			}
		}
	}
	log.Infof("world exhausted, seeded %d areas", count)
}
