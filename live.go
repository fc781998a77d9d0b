// FILE: live.go
// Package main – Cycle cadence.
//
// runLive drives reconciliation on a fixed interval:
//   • Print a safety banner with the tier geometry once at boot.
//   • Run a cycle immediately, then every intervalSec seconds.
//   • Each cycle is run-to-completion; a fatal cycle error is logged and the
//     next tick tries again (the previous persisted state stays
//     authoritative, so nothing is lost by skipping).
//
// runOnce performs exactly one cycle and returns its error; used by -once
// and by cron-style deployments.

package main

import (
	"context"
	"fmt"
	"log"
	"time"
)

// runLive executes cycles with cadence intervalSec (seconds).
func runLive(ctx context.Context, trader *Trader, intervalSec int) {
	if intervalSec <= 0 {
		intervalSec = 300
	}
	banner(trader)

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for {
		if err := runOnce(ctx, trader); err != nil {
			log.Printf("[ERROR] cycle aborted: %v", err)
		}
		select {
		case <-ctx.Done():
			log.Println("shutdown")
			return
		case <-ticker.C:
		}
	}
}

// runOnce performs a single cycle and prints the report.
func runOnce(ctx context.Context, trader *Trader) error {
	plans, results, refreshed, err := trader.runCycle(ctx)
	if err != nil {
		return err
	}
	fmt.Println("\n" + formatGTTReport(plans, results) + "\n")
	if len(refreshed) > 0 {
		fmt.Println(formatActiveGTTs(refreshed) + "\n")
	}
	return nil
}

func banner(trader *Trader) {
	cfg := trader.cfg
	log.Printf("Starting %s — dry_run=%v state_file=%s", trader.broker.Name(), cfg.DryRun, cfg.StateFile)
	log.Printf("[SAFETY] TIER1 trig/limit=%.2f%%/%.2f%% qty=%.0f%% | TIER2 trig/limit=%.2f%%/%.2f%% | TICK_SIZE=%.2f | ARM_NEW_HOLDINGS=%v",
		cfg.Tier1TriggerPct*100, cfg.Tier1LimitPct*100, cfg.Tier1QtyFraction*100,
		cfg.Tier2TriggerPct*100, cfg.Tier2LimitPct*100, cfg.TickSize, cfg.ArmNewHoldings)
}
