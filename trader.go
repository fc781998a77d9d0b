// FILE: trader.go
// Package main – Cycle orchestration and order reconciliation.
//
// Trader owns one reconciliation cycle end to end:
//   1) load high-water-mark state
//   2) fetch holdings and LTP (both fatal to the cycle on error)
//   3) plan per-holding tier updates (strategy.go)
//   4) fetch active GTTs (fatal) and reconcile every UPDATE plan:
//      cancel-then-place per symbol, never concurrent for the same symbol
//   5) persist state and emit the report
//
// Failure classes are explicit result values, not exceptions-in-disguise:
//   • fatal-to-cycle   – runCycle returns an error before any state write
//   • abandoned        – cancel-selection failed for one symbol; its mark is
//                        left untouched, the cycle continues for the rest
//   • partial          – individual cancel/place calls failed; counted, but
//                        the mark still advances (the price condition is
//                        unchanged, so re-running the full cancel/place on
//                        every later cycle would buy nothing)
//   • persistence      – saveGTTState returned false; logged and counted,
//                        broker-side actions are already irreversible

package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
)

// SymbolOutcome classifies how reconciliation went for one symbol.
type SymbolOutcome int

const (
	OutcomeOK SymbolOutcome = iota
	OutcomePartial
	OutcomeAbandoned
)

// String implements fmt.Stringer for pretty logging.
func (o SymbolOutcome) String() string {
	switch o {
	case OutcomePartial:
		return "partial"
	case OutcomeAbandoned:
		return "abandoned"
	default:
		return "ok"
	}
}

// SymbolResult is the per-symbol reconciliation record handed back to the
// cycle driver and the report.
type SymbolResult struct {
	Symbol   string
	Outcome  SymbolOutcome
	Canceled int
	Placed   int
	Err      error // abandoning cause, or first non-abandoning failure
}

// Trader drives reconciliation cycles against one broker.
type Trader struct {
	cfg    Config
	broker Broker
	state  GTTState
}

func NewTrader(cfg Config, broker Broker) *Trader {
	return &Trader{cfg: cfg, broker: broker, state: GTTState{}}
}

// runCycle performs one full plan-then-execute pass, returning the plans,
// the per-symbol results, and the refreshed active-trigger list. A returned
// error is fatal to the cycle: nothing was reconciled and no state was
// written.
func (t *Trader) runCycle(ctx context.Context) ([]Plan, []SymbolResult, []GTT, error) {
	cycleID := uuid.New().String()[:8]
	log.Printf("[CYCLE %s] starting (broker=%s dry_run=%v)", cycleID, t.broker.Name(), t.cfg.DryRun)

	t.state = loadGTTState(t.cfg.StateFile)

	holdings, err := t.broker.Holdings(ctx)
	if err != nil {
		IncCycle("fatal")
		return nil, nil, nil, fmt.Errorf("fetch holdings: %w", err)
	}
	holdings = equityHoldings(holdings, t.cfg.DefaultExchange)
	SetHoldingsMetric(len(holdings))
	if len(holdings) == 0 {
		log.Printf("[CYCLE %s] no equity holdings, nothing to do", cycleID)
		IncCycle("ok")
		return nil, nil, nil, nil
	}

	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		symbols = append(symbols, h.Symbol)
	}
	ltp, err := t.broker.LastPrices(ctx, symbols)
	if err != nil {
		IncCycle("fatal")
		return nil, nil, nil, fmt.Errorf("fetch ltp: %w", err)
	}
	merged := holdings[:0]
	for _, h := range holdings {
		px, ok := ltp[h.Symbol]
		if !ok || px <= 0 {
			log.Printf("[WARN] no LTP for %s, skipping this cycle", h.Symbol)
			continue
		}
		h.LastPrice = px
		merged = append(merged, h)
	}
	holdings = merged

	plans := planUpdates(holdings, t.state, t.cfg)
	for _, p := range plans {
		IncPlan(strings.ToLower(p.Action.String()))
	}

	active, err := t.broker.ActiveGTTs(ctx)
	if err != nil {
		IncCycle("fatal")
		return nil, nil, nil, fmt.Errorf("fetch active GTTs: %w", err)
	}

	results := t.reconcile(ctx, plans, active)

	if !saveGTTState(t.cfg.StateFile, t.state) {
		IncStateSaveFailure()
		log.Printf("[WARN] state save failed; previous file remains authoritative")
	}

	// Refreshed trigger list for the report; best effort only.
	refreshed, err := t.broker.ActiveGTTs(ctx)
	if err != nil {
		log.Printf("[WARN] post-cycle GTT refresh failed: %v", err)
		refreshed = nil
	} else {
		SetActiveTriggersMetric(len(refreshed))
	}

	IncCycle("ok")
	log.Printf("[CYCLE %s] done: %d plan(s), %d reconciled", cycleID, len(plans), len(results))
	return plans, results, refreshed, nil
}

// reconcile executes every UPDATE plan sequentially. One symbol's broker
// error never prevents other symbols from being reconciled.
func (t *Trader) reconcile(ctx context.Context, plans []Plan, active []GTT) []SymbolResult {
	var results []SymbolResult
	for _, plan := range plans {
		if plan.Action != Update {
			continue
		}
		res := SymbolResult{Symbol: plan.Symbol}

		canceled, cancelFailures, err := t.cancelActiveGTTs(ctx, plan.Symbol, active)
		res.Canceled = canceled
		if err != nil {
			// Selection/lookup failure: without a trustworthy view of what is
			// live we could place duplicates, so skip placement and leave the
			// high-water mark untouched for this symbol.
			IncSymbolFailure("cancel_lookup")
			log.Printf("[ERROR] %s: cancel phase abandoned: %v", plan.Symbol, err)
			res.Outcome = OutcomeAbandoned
			res.Err = err
			results = append(results, res)
			continue
		}

		placed, placeFailures, firstErr := t.placeTierGTTs(ctx, plan)
		res.Placed = placed
		if cancelFailures > 0 || placeFailures > 0 {
			res.Outcome = OutcomePartial
			res.Err = firstErr
		}

		// The mark advances whenever the symbol wasn't abandoned: placement
		// failures retry naturally on the next new high.
		t.state[plan.Symbol] = SymbolState{LastHighPrice: plan.NewHigh}
		results = append(results, res)
	}
	return results
}

// cancelActiveGTTs cancels every active-status GTT for the symbol. Each
// cancellation is attempted independently; individual failures are counted
// and do not block the rest. A non-nil error means the selection step itself
// failed and the whole symbol must be abandoned.
func (t *Trader) cancelActiveGTTs(ctx context.Context, symbol string, active []GTT) (canceled, failures int, err error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	var matching []GTT
	for _, g := range active {
		if g.Symbol != symbol || g.Status != GTTStatusActive {
			continue
		}
		if g.TriggerID <= 0 {
			// A live trigger we cannot address by ID means the listing is not
			// trustworthy; canceling "the rest" and placing on top of it
			// risks overlapping protective orders.
			return 0, 0, fmt.Errorf("active GTT for %s has no trigger id", symbol)
		}
		matching = append(matching, g)
	}
	if len(matching) == 0 {
		log.Printf("[CANCEL] %s: no active GTTs", symbol)
		return 0, 0, nil
	}
	log.Printf("[CANCEL] %s: %d active GTT(s)", symbol, len(matching))
	for _, g := range matching {
		if err := t.broker.CancelGTT(ctx, g.TriggerID); err != nil {
			failures++
			IncSymbolFailure("cancel")
			log.Printf("[ERROR] %s: cancel trigger %d: %v", symbol, g.TriggerID, err)
			continue
		}
		canceled++
		IncCanceled()
		log.Printf("[CANCEL] %s: canceled trigger %d", symbol, g.TriggerID)
	}
	return canceled, failures, nil
}

// placeTierGTTs submits one sell GTT per tier with a positive quantity.
// A tier with qty 0 is skipped (not an error); each placement failure is
// logged individually and does not prevent attempting the other tier.
func (t *Trader) placeTierGTTs(ctx context.Context, plan Plan) (placed, failures int, firstErr error) {
	tiers := []struct {
		label string
		tier  Tier
	}{
		{"1", plan.Tier1},
		{"2", plan.Tier2},
	}
	for _, tt := range tiers {
		if tt.tier.Qty <= 0 {
			log.Printf("[PLACE] %s tier %s: quantity is 0, skipping", plan.Symbol, tt.label)
			continue
		}
		req := GTTRequest{
			Symbol:       plan.Symbol,
			Exchange:     plan.Exchange,
			TriggerPrice: tt.tier.Trigger,
			LimitPrice:   tt.tier.Limit,
			Quantity:     tt.tier.Qty,
		}
		id, err := t.broker.PlaceGTT(ctx, req)
		if err != nil {
			failures++
			IncSymbolFailure("place")
			if firstErr == nil {
				firstErr = err
			}
			log.Printf("[ERROR] %s tier %s: place failed: %v", plan.Symbol, tt.label, err)
			continue
		}
		placed++
		IncPlaced(tt.label)
		log.Printf("[PLACE] %s tier %s: qty=%d trigger=%.2f limit=%.2f (trigger_id=%d)",
			plan.Symbol, tt.label, tt.tier.Qty, tt.tier.Trigger, tt.tier.Limit, id)
	}
	return placed, failures, firstErr
}

// equityHoldings filters to equity positions with shares actually held and
// backfills a missing exchange code.
func equityHoldings(holdings []Holding, defaultExchange string) []Holding {
	out := make([]Holding, 0, len(holdings))
	for _, h := range holdings {
		if h.Quantity <= 0 {
			continue
		}
		if h.InstrumentType != "" && h.InstrumentType != "EQ" {
			continue
		}
		if h.Exchange == "" {
			h.Exchange = defaultExchange
			if ex, _ := splitSymbol(h.Symbol); ex == "" {
				h.Symbol = qualifySymbol(defaultExchange, h.Symbol)
			}
		}
		out = append(out, h)
	}
	return out
}
