package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rawblock/goldrush-engine/internal/accountant"
	"github.com/rawblock/goldrush-engine/internal/attorney"
	"github.com/rawblock/goldrush-engine/internal/config"
	"github.com/rawblock/goldrush-engine/internal/dashboard"
	"github.com/rawblock/goldrush-engine/internal/digger"
	"github.com/rawblock/goldrush-engine/internal/explorer"
	"github.com/rawblock/goldrush-engine/internal/phase"
	"github.com/rawblock/goldrush-engine/internal/pipeline"
	"github.com/rawblock/goldrush-engine/internal/ratelimit"
	"github.com/rawblock/goldrush-engine/internal/seeder"
	"github.com/rawblock/goldrush-engine/internal/statrender"
	"github.com/rawblock/goldrush-engine/internal/wireclient"
	"github.com/rawblock/goldrush-engine/pkg/model"
)

func main() {
	log.Println("Starting goldrush-engine...")

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go waitForSignal(cancel)

	queues := pipeline.New(pipeline.Capacities{
		Areas:         cfg.AreasChanCap,
		Tiles:         cfg.TilesChanCap,
		Licenses:      cfg.LicensesChanCap,
		EmptyLicenses: cfg.EmptyLicensesChanCap,
		Treasures:     cfg.TreasuresChanCap,
	})
	go queues.Metrics.Run(ctx.Done())

	phaseCtl := phase.NewController()
	limiters := buildLimiters(cfg, phaseCtl)
	go phaseCtl.Run(ctx, cfg.EnablePhased, time.Duration(cfg.Phase2Start)*time.Second)

	client := wireclient.New(cfg.BaseURL(), limiters.Global, queues.Metrics)

	prefillEmptyLicenses(queues.EmptyLicenses)

	seederRows := cfg.SearchInitialArraySize
	go seeder.Run(ctx, cfg.WorldSize, seederRows, queues.Areas)

	explorer.New(
		client, limiters.Explore, time.Duration(cfg.ExploreHTTPTimeoutMS)*time.Millisecond,
		cfg.SearchMinAmount, cfg.SearchBinaryEnabled, cfg.SearchToFlatThreshold, cfg.SearchFlatSize,
		queues.Areas, queues.Tiles,
	).Run(ctx, cfg.SearchExplorersNum)

	attorney.New(
		client, limiters.Attorney, time.Duration(cfg.AttorneyHTTPTimeoutMS)*time.Millisecond,
		cfg.AttorneyLicenseMinCost, cfg.AttorneyLicenseMaxCost, cfg.AttorneyFreeLicenseProbability,
		queues.Cash, queues.EmptyLicenses, queues.Licenses,
	).Run(ctx, cfg.AttorneysNum)

	digger.New(
		client, limiters.Digger, time.Duration(cfg.DiggerHTTPTimeoutMS)*time.Millisecond, queues.Metrics,
		cfg.DiggerMinDepth, cfg.DiggerMaxDepth, cfg.DiggerMinDepthProbability,
		queues.Tiles, queues.Licenses, queues.EmptyLicenses, queues.Treasures,
	).Run(ctx, cfg.DiggersNum)

	accountant.New(
		client, limiters.Accountant, time.Duration(cfg.AccountantHTTPTimeoutMS)*time.Millisecond,
		queues.Treasures, queues.Cash,
	).Run(ctx, cfg.AccountantNum)

	go statrender.Run(ctx, time.Duration(cfg.StatistDisplayTick)*time.Second, queues, queues.Metrics)

	if cfg.DashboardEnabled {
		dash := dashboard.New(cfg.DashboardPort, cfg.DashboardAuthToken, cfg.DashboardRatePerMin, cfg.DashboardRateBurst, queues, queues.Metrics)
		go dash.Run(ctx)
	}

	<-ctx.Done()
	log.Println("shutting down")
	time.Sleep(200 * time.Millisecond) // let in-flight goroutines notice ctx.Done()
}

func waitForSignal(cancel context.CancelFunc) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	cancel()
}

// buildLimiters constructs the nine rate limiters of spec.md §5: one
// global ceiling plus four stages, each phase-aware.
func buildLimiters(cfg *config.Config, flag ratelimit.PhaseFlag) ratelimit.Set {
	phased := func(q config.RateQuota) *ratelimit.Phased {
		return ratelimit.NewPhased(flag, ratelimit.New(q.Phase1, 0), ratelimit.New(q.Phase2, 0))
	}
	return ratelimit.Set{
		Global:     ratelimit.New(cfg.MaxRPS, 0),
		Explore:    phased(cfg.ExploreRPS),
		Digger:     phased(cfg.DiggerRPS),
		Attorney:   phased(cfg.AttorneyRPS),
		Accountant: phased(cfg.AccountantRPS),
	}
}

// prefillEmptyLicenses fills EMPTY_LICENSES to capacity with zero-value
// Licenses so the Attorney pool has work to do from the first tick
// (spec.md §4.3 "Initialization").
func prefillEmptyLicenses(emptyLicenses chan model.License) {
	for i := 0; i < cap(emptyLicenses); i++ {
		emptyLicenses <- model.License{}
	}
}
