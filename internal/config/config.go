// Package config loads the frozen record of tunables described in spec.md
// §6 from the environment, the way luxfi-evm wires spf13/viper (with
// pflag/cast) for its node configuration: defaults are registered up
// front, environment variables are bound with automatic name translation,
// and the result is copied into an immutable struct before any worker
// starts.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// RateQuota is a requests-per-second quota for one stage in one phase.
type RateQuota struct {
	Phase1 float64
	Phase2 float64
}

// Config is the frozen record of tunables. It must never be mutated after
// Load returns.
type Config struct {
	Address   string
	WorldSize uint64

	AttorneysNum      int
	DiggersNum        int
	AccountantNum     int
	SearchExplorersNum int

	SearchBinaryEnabled   bool
	SearchInitialArraySize uint64
	SearchMinAmount       uint64
	SearchToFlatThreshold uint64
	SearchFlatSize        uint64

	DiggerMinDepth            int
	DiggerMaxDepth            int
	DiggerMinDepthProbability int

	AttorneyLicenseMinCost        int
	AttorneyLicenseMaxCost        int
	AttorneyFreeLicenseProbability int

	ExploreHTTPTimeoutMS   int
	DiggerHTTPTimeoutMS    int
	AttorneyHTTPTimeoutMS  int
	AccountantHTTPTimeoutMS int

	AreasChanCap         int
	TilesChanCap         int
	LicensesChanCap      int
	EmptyLicensesChanCap int
	TreasuresChanCap     int

	MaxRPS         float64
	ExploreRPS     RateQuota
	DiggerRPS      RateQuota
	AttorneyRPS    RateQuota
	AccountantRPS  RateQuota
	EnablePhased   bool
	Phase2Start    int

	StatistDisplayTick int

	DashboardEnabled     bool
	DashboardPort        int
	DashboardAuthToken   string
	DashboardRatePerMin  int
	DashboardRateBurst   int

	LogLevel string
}

// Load reads environment variables (optionally overridden by CLI flags in
// args) into a Config, applying the defaults from spec.md §6.
func Load(args []string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	flags := pflag.NewFlagSet("goldrush-engine", pflag.ContinueOnError)
	flags.String("address", v.GetString("address"), "remote server host (port fixed to 8000)")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("config: parse flags: %w", err)
	}
	_ = v.BindPFlags(flags)

	cfg := &Config{
		Address:   v.GetString("address"),
		WorldSize: v.GetUint64("world_size"),

		AttorneysNum:       v.GetInt("attorneys_num"),
		DiggersNum:         v.GetInt("diggers_num"),
		AccountantNum:      v.GetInt("accountant_num"),
		SearchExplorersNum: v.GetInt("search_explorers_num"),

		SearchBinaryEnabled:    v.GetBool("search_binary_enabled"),
		SearchInitialArraySize: v.GetUint64("search_initial_array_size"),
		SearchMinAmount:        v.GetUint64("search_min_amount"),
		SearchToFlatThreshold:  v.GetUint64("search_to_flat_threshold"),
		SearchFlatSize:         v.GetUint64("search_flat_size"),

		DiggerMinDepth:            v.GetInt("digger_min_depth"),
		DiggerMaxDepth:            v.GetInt("digger_max_depth"),
		DiggerMinDepthProbability: v.GetInt("digger_min_depth_probability"),

		AttorneyLicenseMinCost:         v.GetInt("attorney_license_min_cost"),
		AttorneyLicenseMaxCost:         v.GetInt("attorney_license_max_cost"),
		AttorneyFreeLicenseProbability: v.GetInt("attorney_free_license_probability"),

		ExploreHTTPTimeoutMS:    v.GetInt("explore_http_timeout_ms"),
		DiggerHTTPTimeoutMS:     v.GetInt("digger_http_timeout_ms"),
		AttorneyHTTPTimeoutMS:   v.GetInt("attorney_http_timeout_ms"),
		AccountantHTTPTimeoutMS: v.GetInt("accountant_http_timeout_ms"),

		AreasChanCap:         v.GetInt("areas_chan_cap"),
		TilesChanCap:         v.GetInt("tiles_chan_cap"),
		LicensesChanCap:      v.GetInt("licenses_chan_cap"),
		EmptyLicensesChanCap: v.GetInt("empty_licenses_chan_cap"),
		TreasuresChanCap:     v.GetInt("treasures_chan_cap"),

		MaxRPS: v.GetFloat64("max_rps"),
		ExploreRPS: RateQuota{
			Phase1: v.GetFloat64("explore_rps_phase1"),
			Phase2: v.GetFloat64("explore_rps_phase2"),
		},
		DiggerRPS: RateQuota{
			Phase1: v.GetFloat64("digger_rps_phase1"),
			Phase2: v.GetFloat64("digger_rps_phase2"),
		},
		AttorneyRPS: RateQuota{
			Phase1: v.GetFloat64("attorney_rps_phase1"),
			Phase2: v.GetFloat64("attorney_rps_phase2"),
		},
		AccountantRPS: RateQuota{
			Phase1: v.GetFloat64("accountant_rps_phase1"),
			Phase2: v.GetFloat64("accountant_rps_phase2"),
		},
		EnablePhased: v.GetBool("enable_phased"),
		Phase2Start:  v.GetInt("phase2_start"),

		StatistDisplayTick: v.GetInt("statist_display_tick"),

		DashboardEnabled:    v.GetBool("dashboard_enabled"),
		DashboardPort:       v.GetInt("dashboard_port"),
		DashboardAuthToken:  v.GetString("dashboard_auth_token"),
		DashboardRatePerMin: v.GetInt("dashboard_rate_per_min"),
		DashboardRateBurst:  v.GetInt("dashboard_rate_burst"),

		LogLevel: v.GetString("log_level"),
	}

	return cfg, cfg.validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("address", "localhost")
	v.SetDefault("world_size", 3500)

	v.SetDefault("attorneys_num", 8)
	v.SetDefault("diggers_num", 8)
	v.SetDefault("accountant_num", 8)
	v.SetDefault("search_explorers_num", 8)

	v.SetDefault("search_binary_enabled", true)
	v.SetDefault("search_initial_array_size", 31)
	v.SetDefault("search_min_amount", 1)
	v.SetDefault("search_to_flat_threshold", 31)
	v.SetDefault("search_flat_size", 3)

	v.SetDefault("digger_min_depth", 1)
	v.SetDefault("digger_max_depth", 10)
	v.SetDefault("digger_min_depth_probability", 100)

	v.SetDefault("attorney_license_min_cost", 1)
	v.SetDefault("attorney_license_max_cost", 21)
	v.SetDefault("attorney_free_license_probability", 0)

	v.SetDefault("explore_http_timeout_ms", 2000)
	v.SetDefault("digger_http_timeout_ms", 2000)
	v.SetDefault("attorney_http_timeout_ms", 2000)
	v.SetDefault("accountant_http_timeout_ms", 2000)

	v.SetDefault("areas_chan_cap", 5)
	v.SetDefault("tiles_chan_cap", 5)
	v.SetDefault("licenses_chan_cap", 30)
	v.SetDefault("empty_licenses_chan_cap", 10)
	v.SetDefault("treasures_chan_cap", 100)

	v.SetDefault("max_rps", 1000)
	v.SetDefault("explore_rps_phase1", 50)
	v.SetDefault("explore_rps_phase2", 5)
	v.SetDefault("digger_rps_phase1", 50)
	v.SetDefault("digger_rps_phase2", 5)
	v.SetDefault("attorney_rps_phase1", 20)
	v.SetDefault("attorney_rps_phase2", 5)
	v.SetDefault("accountant_rps_phase1", 20)
	v.SetDefault("accountant_rps_phase2", 50)
	v.SetDefault("enable_phased", false)
	v.SetDefault("phase2_start", 180)

	v.SetDefault("statist_display_tick", 5)

	v.SetDefault("dashboard_enabled", true)
	v.SetDefault("dashboard_port", 5339)
	v.SetDefault("dashboard_auth_token", "")
	v.SetDefault("dashboard_rate_per_min", 120)
	v.SetDefault("dashboard_rate_burst", 30)

	v.SetDefault("log_level", "info")
}

func (c *Config) validate() error {
	if c.Address == "" {
		return fmt.Errorf("config: ADDRESS must not be empty")
	}
	if c.WorldSize == 0 {
		return fmt.Errorf("config: WORLD_SIZE must be > 0")
	}
	if c.AttorneysNum < 1 || c.DiggersNum < 1 || c.AccountantNum < 1 || c.SearchExplorersNum < 1 {
		return fmt.Errorf("config: all worker-pool sizes must be >= 1")
	}
	if c.SearchInitialArraySize == 0 {
		return fmt.Errorf("config: SEARCH_INITIAL_ARRAY_SIZE must be > 0")
	}
	if c.DiggerMaxDepth < c.DiggerMinDepth {
		return fmt.Errorf("config: DIGGER_MAX_DEPTH must be >= DIGGER_MIN_DEPTH")
	}
	return nil
}

// BaseURL returns the fully-formed base URL of the remote server (port
// fixed to 8000, per spec.md §6).
func (c *Config) BaseURL() string {
	return fmt.Sprintf("http://%s:8000", c.Address)
}
