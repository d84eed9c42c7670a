package config

import "testing"

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Address != "localhost" {
		t.Errorf("Address = %q, want %q", cfg.Address, "localhost")
	}
	if cfg.WorldSize != 3500 {
		t.Errorf("WorldSize = %d, want 3500", cfg.WorldSize)
	}
	if cfg.AttorneysNum != 8 || cfg.DiggersNum != 8 || cfg.AccountantNum != 8 || cfg.SearchExplorersNum != 8 {
		t.Errorf("worker pool defaults = %+v, want all 8", cfg)
	}
	if cfg.BaseURL() != "http://localhost:8000" {
		t.Errorf("BaseURL() = %q, want %q", cfg.BaseURL(), "http://localhost:8000")
	}
}

func TestLoadAddressFlagOverride(t *testing.T) {
	cfg, err := Load([]string{"--address", "game.example.com"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Address != "game.example.com" {
		t.Errorf("Address = %q, want %q", cfg.Address, "game.example.com")
	}
}

func TestValidateRejectsInvertedDepthRange(t *testing.T) {
	cfg := &Config{
		Address:                "x",
		WorldSize:              1,
		AttorneysNum:           1,
		DiggersNum:             1,
		AccountantNum:          1,
		SearchExplorersNum:     1,
		SearchInitialArraySize: 1,
		DiggerMinDepth:         5,
		DiggerMaxDepth:         1,
	}
	if err := cfg.validate(); err == nil {
		t.Fatalf("expected validate() to reject DiggerMaxDepth < DiggerMinDepth")
	}
}

func TestValidateRejectsZeroWorkerPool(t *testing.T) {
	cfg := &Config{
		Address:                "x",
		WorldSize:              1,
		AttorneysNum:           0,
		DiggersNum:             1,
		AccountantNum:          1,
		SearchExplorersNum:     1,
		SearchInitialArraySize: 1,
		DiggerMaxDepth:         1,
	}
	if err := cfg.validate(); err == nil {
		t.Fatalf("expected validate() to reject a zero-sized worker pool")
	}
}
