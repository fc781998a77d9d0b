// FILE: config.go
// Package main – Runtime configuration model and loader.
//
// This file defines the Config struct (all the knobs the engine uses) and a
// helper to populate it from environment variables. The .env file is read
// by loadBotEnv() (see env.go), so you can tune behavior without exports.
//
// Typical flow (see main.go):
//   loadBotEnv()
//   cfg := loadConfigFromEnv()
//   validateConfig(cfg)
package main

import "log"

// Config holds all runtime knobs for the GTT strategy and operations.
type Config struct {
	// Tier geometry: each pct is a fraction of the new high trimmed off.
	Tier1TriggerPct  float64 // e.g. 0.10 → trigger 10% below the high
	Tier1LimitPct    float64
	Tier2TriggerPct  float64
	Tier2LimitPct    float64
	Tier1QtyFraction float64 // fraction of the position sold at tier 1

	// Exchange mechanics
	TickSize        float64 // minimum price increment (NSE equity: 0.05)
	DefaultExchange string  // used when a holding omits its exchange code

	// Behavior switches
	DryRun         bool // paper broker, no real orders
	ArmNewHoldings bool // true: first observation of a new holding arms tiers

	// Ops
	Port      int
	StateFile string

	// Kite Connect (only consulted when BROKER=kite)
	KiteBaseURL     string
	KiteAPIKey      string
	KiteAccessToken string
}

// loadConfigFromEnv reads the process env (already hydrated by loadBotEnv())
// and returns a Config with sane defaults if keys are missing.
func loadConfigFromEnv() Config {
	return Config{
		Tier1TriggerPct:  getEnvFloat("TIER1_TRIGGER_PCT", 0.10),
		Tier1LimitPct:    getEnvFloat("TIER1_LIMIT_PCT", 0.11),
		Tier2TriggerPct:  getEnvFloat("TIER2_TRIGGER_PCT", 0.20),
		Tier2LimitPct:    getEnvFloat("TIER2_LIMIT_PCT", 0.21),
		Tier1QtyFraction: getEnvFloat("TIER1_QTY_FRACTION", 0.30),

		TickSize:        getEnvFloat("TICK_SIZE", 0.05),
		DefaultExchange: getEnv("DEFAULT_EXCHANGE", "NSE"),

		DryRun:         getEnvBool("DRY_RUN", true),
		ArmNewHoldings: getEnvBool("ARM_NEW_HOLDINGS", true),

		Port:      getEnvInt("PORT", 8080),
		StateFile: getEnv("STATE_FILE", "/opt/kitegtt/state/gtt_state.json"),

		KiteBaseURL:     getEnv("KITE_BASE_URL", "https://api.kite.trade"),
		KiteAPIKey:      getEnv("KITE_API_KEY", ""),
		KiteAccessToken: getEnv("KITE_ACCESS_TOKEN", ""),
	}
}

// validateConfig logs (does not abort on) suspicious tier settings. The
// price-level calculator itself does not enforce trigger < limit distance;
// an inverted pair is almost always a typo, so flag it at boot.
func validateConfig(cfg Config) {
	if cfg.Tier1LimitPct < cfg.Tier1TriggerPct {
		log.Printf("[WARN] TIER1_LIMIT_PCT (%.4f) < TIER1_TRIGGER_PCT (%.4f): limit would sit above the trigger", cfg.Tier1LimitPct, cfg.Tier1TriggerPct)
	}
	if cfg.Tier2LimitPct < cfg.Tier2TriggerPct {
		log.Printf("[WARN] TIER2_LIMIT_PCT (%.4f) < TIER2_TRIGGER_PCT (%.4f): limit would sit above the trigger", cfg.Tier2LimitPct, cfg.Tier2TriggerPct)
	}
	if cfg.Tier1QtyFraction < 0 || cfg.Tier1QtyFraction > 1 {
		log.Printf("[WARN] TIER1_QTY_FRACTION (%.4f) outside [0,1]", cfg.Tier1QtyFraction)
	}
	if cfg.TickSize <= 0 {
		log.Printf("[WARN] TICK_SIZE (%.4f) <= 0: prices will not be tick-rounded", cfg.TickSize)
	}
}
