// Package statrender prints the periodic stdout stats line spec.md §6
// names: elapsed time, queue depths, per-status counters, rolling
// requests/sec, explore success ratio, average coin value per cash-in and
// net income. Grounded on the teacher's ticker-driven poll loops
// (mempool.Poller.Run, scanner.BlockScanner.ScanRange), which log a plain
// one-line summary on every tick rather than a structured record.
package statrender

import (
	"context"
	"fmt"
	"time"

	"github.com/rawblock/goldrush-engine/internal/metrics"
	"github.com/rawblock/goldrush-engine/internal/pipeline"
)

// Run prints one stats line every period until ctx is cancelled.
func Run(ctx context.Context, period time.Duration, queues *pipeline.Queues, sink *metrics.Sink) {
	if period <= 0 {
		period = 5 * time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	start := time.Now()
	prev := sink.Snapshot()
	prevAt := start

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cur := sink.Snapshot()
			fmt.Println(render(now.Sub(start), now.Sub(prevAt), prev, cur, queues.Depths()))
			prev = cur
			prevAt = now
		}
	}
}

func render(elapsed, tickDelta time.Duration, prev, cur metrics.Snapshot, depths pipeline.Depths) string {
	total := func(s metrics.Snapshot) int64 {
		var n int64
		for _, v := range s.StatusCounts {
			n += v
		}
		return n
	}

	deltaRequests := total(cur) - total(prev)
	rps := 0.0
	if secs := tickDelta.Seconds(); secs > 0 {
		rps = float64(deltaRequests) / secs
	}

	exploreRatio := 0.0
	if cur.ExploreCount > 0 {
		exploreRatio = float64(cur.ExploreSuccess) / float64(cur.ExploreCount)
	}

	avgCoinValue := 0.0
	if cur.CashSuccess > 0 {
		avgCoinValue = float64(cur.CashValueTotal) / float64(cur.CashSuccess)
	}

	return fmt.Sprintf(
		"[Stats] t=%.0fs rps=%.1f queues{areas=%d tiles=%d lic=%d emptyLic=%d treas=%d cash=%d} "+
			"status{200=%d 404=%d 409=%d 422=%d 429=%d 5xx=%d other=%d} "+
			"explore=%.1f%% avgCoin=%.2f netIncome=%d",
		elapsed.Seconds(), rps,
		depths.Areas, depths.Tiles, depths.Licenses, depths.EmptyLicenses, depths.Treasures, depths.Cash,
		cur.StatusCounts["200"], cur.StatusCounts["404"], cur.StatusCounts["409"], cur.StatusCounts["422"],
		cur.StatusCounts["429"], cur.StatusCounts["5xx"], cur.StatusCounts["other"],
		exploreRatio*100, avgCoinValue, cur.NetIncome(),
	)
}
