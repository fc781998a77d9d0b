// FILE: strategy.go
// Package main – Trailing high-water-mark planning.
//
// This file declares the plan types produced once per holding per cycle
// (Plan, Tier, PlanAction), the tick rounder, the two-tier price-level
// calculator, and the `planUpdates` function that turns holdings plus the
// stored high-water marks into per-symbol intents.
//
// The strategy: every strictly new high re-arms two conditional sell orders
// below it. Tier 1 takes a configured fraction of the position at a tight
// trailing distance; tier 2 takes the remainder at a wider one.
//
// Percentages and the tick size are tunable via .env (no exports):
//   TIER1_TRIGGER_PCT (0.10), TIER1_LIMIT_PCT (0.11),
//   TIER2_TRIGGER_PCT (0.20), TIER2_LIMIT_PCT (0.21),
//   TIER1_QTY_FRACTION (0.30), TICK_SIZE (0.05)

package main

import (
	"fmt"
	"math"
)

// PlanAction is the per-holding intent for one cycle.
type PlanAction int

const (
	NoAction PlanAction = iota
	Update
)

// String implements fmt.Stringer for pretty logging.
func (a PlanAction) String() string {
	switch a {
	case Update:
		return "UPDATE"
	default:
		return "NO_ACTION"
	}
}

// Tier is one of the two conditional sell orders derived from a new high.
// Trigger and Limit are already tick-rounded.
type Tier struct {
	Qty     int
	Trigger float64
	Limit   float64
}

// Plan captures what to do for one holding and why. Plans are immutable,
// single-cycle artifacts; they are never persisted.
type Plan struct {
	Symbol   string
	Exchange string
	Action   PlanAction
	Reason   string  // set for NoAction
	NewHigh  float64 // set for Update
	Tier1    Tier
	Tier2    Tier
}

// noHighRecorded is the stored-high stand-in for a symbol with no state
// entry: lower than any legal price, so the first observation of a
// brand-new holding always produces an Update.
var noHighRecorded = math.Inf(-1)

// roundToTick rounds a price down to the nearest multiple of tick.
// It floors the float quotient as-is: a price sitting a hair below a tick
// boundary in binary (10.20 at tick 0.05) rounds to the tick below. Rounding
// never goes up, so a rounded trigger can only be tighter, not looser.
func roundToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	return math.Floor(price/tick) * tick
}

// computeTiers derives the four tick-rounded price levels and the share
// split for a new high. Tier 1 quantity is truncated toward zero; tier 2
// receives the remainder, so the two always sum to quantity exactly.
func computeTiers(newHigh float64, quantity int, cfg Config) (Tier, Tier) {
	t1Qty := int(float64(quantity) * cfg.Tier1QtyFraction)
	t1 := Tier{
		Qty:     t1Qty,
		Trigger: roundToTick(newHigh*(1-cfg.Tier1TriggerPct), cfg.TickSize),
		Limit:   roundToTick(newHigh*(1-cfg.Tier1LimitPct), cfg.TickSize),
	}
	t2 := Tier{
		Qty:     quantity - t1Qty,
		Trigger: roundToTick(newHigh*(1-cfg.Tier2TriggerPct), cfg.TickSize),
		Limit:   roundToTick(newHigh*(1-cfg.Tier2LimitPct), cfg.TickSize),
	}
	return t1, t2
}

// planHolding builds the plan for a single holding against the stored state.
func planHolding(h Holding, state GTTState, cfg Config) Plan {
	storedHigh := noHighRecorded
	if !cfg.ArmNewHoldings {
		// Legacy behavior: a symbol never seen before starts at the current
		// price, which suppresses the first trigger.
		storedHigh = h.LastPrice
	}
	if st, ok := state[h.Symbol]; ok {
		storedHigh = st.LastHighPrice
	}

	if h.LastPrice <= storedHigh {
		return Plan{
			Symbol:   h.Symbol,
			Exchange: h.Exchange,
			Action:   NoAction,
			Reason:   fmt.Sprintf("LTP (%g) not a new high (%g)", h.LastPrice, storedHigh),
		}
	}

	t1, t2 := computeTiers(h.LastPrice, h.Quantity, cfg)
	return Plan{
		Symbol:   h.Symbol,
		Exchange: h.Exchange,
		Action:   Update,
		NewHigh:  h.LastPrice,
		Tier1:    t1,
		Tier2:    t2,
	}
}

// planUpdates builds one plan per holding. Planning is stateless across
// holdings: the plan for one symbol never depends on another symbol's plan.
func planUpdates(holdings []Holding, state GTTState, cfg Config) []Plan {
	plans := make([]Plan, 0, len(holdings))
	for _, h := range holdings {
		plans = append(plans, planHolding(h, state, cfg))
	}
	return plans
}
