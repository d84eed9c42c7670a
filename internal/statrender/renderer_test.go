package statrender

import (
	"strings"
	"testing"
	"time"

	"github.com/rawblock/goldrush-engine/internal/metrics"
	"github.com/rawblock/goldrush-engine/internal/pipeline"
)

func TestRenderIncludesKeyFields(t *testing.T) {
	prev := metrics.Snapshot{StatusCounts: map[string]int64{"200": 10}}
	cur := metrics.Snapshot{
		StatusCounts:      map[string]int64{"200": 25, "404": 2, "409": 0, "422": 0, "429": 1, "5xx": 0, "other": 0},
		ExploreCount:      20,
		ExploreSuccess:    18,
		CashSuccess:       4,
		CashValueTotal:    40,
		LicenseSpendTotal: 10,
	}
	depths := pipeline.Depths{Areas: 1, Tiles: 2, Licenses: 3, EmptyLicenses: 4, Treasures: 5, Cash: 6}

	line := render(30*time.Second, 5*time.Second, prev, cur, depths)

	for _, want := range []string{"t=30s", "rps=3.6", "areas=1", "tiles=2", "lic=3", "emptyLic=4", "treas=5", "cash=6", "200=25", "404=2", "429=1", "netIncome=30"} {
		if !strings.Contains(line, want) {
			t.Errorf("render() = %q, missing %q", line, want)
		}
	}
}

func TestRenderHandlesZeroDenominators(t *testing.T) {
	cur := metrics.Snapshot{StatusCounts: map[string]int64{}}
	line := render(0, 0, cur, cur, pipeline.Depths{})
	if strings.Contains(line, "NaN") || strings.Contains(line, "+Inf") {
		t.Fatalf("render() produced an invalid number: %q", line)
	}
}
