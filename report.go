// FILE: report.go
// Package main – Human-readable console report for one cycle.
//
// formatGTTReport turns the cycle's plan list (and, when available, the
// per-symbol reconciliation results) into the fixed-width report printed
// after every cycle. Formatting only; no broker or state access.

package main

import (
	"fmt"
	"strings"
)

const reportRule = "================================================================================"

// formatGTTReport renders the plan list. results may be nil (dry planning).
func formatGTTReport(plans []Plan, results []SymbolResult) string {
	if len(plans) == 0 {
		return "No GTT plans generated."
	}

	outcomes := make(map[string]SymbolResult, len(results))
	for _, r := range results {
		outcomes[r.Symbol] = r
	}

	updates := 0
	for _, p := range plans {
		if p.Action == Update {
			updates++
		}
	}

	var b strings.Builder
	b.WriteString(reportRule + "\n")
	b.WriteString("GTT STOP-LOSS STRATEGY REPORT\n")
	b.WriteString(reportRule + "\n\n")
	fmt.Fprintf(&b, "SUMMARY: %d holdings analyzed | %d updates planned | %d no action\n\n",
		len(plans), updates, len(plans)-updates)

	if updates > 0 {
		b.WriteString("ACTIONS:\n")
		b.WriteString(strings.Repeat("-", 40) + "\n")
		for _, p := range plans {
			if p.Action != Update {
				continue
			}
			fmt.Fprintf(&b, "%s: UPDATE | New High: ₹%g%s\n", p.Symbol, p.NewHigh, outcomeSuffix(outcomes, p.Symbol))
			fmt.Fprintf(&b, "  └─ Tier 1: %d shares @ Trigger: ₹%.2f, Limit: ₹%.2f\n", p.Tier1.Qty, p.Tier1.Trigger, p.Tier1.Limit)
			fmt.Fprintf(&b, "  └─ Tier 2: %d shares @ Trigger: ₹%.2f, Limit: ₹%.2f\n", p.Tier2.Qty, p.Tier2.Trigger, p.Tier2.Limit)
			b.WriteString("\n")
		}
	}

	if updates < len(plans) {
		b.WriteString("NO ACTION REQUIRED:\n")
		b.WriteString(strings.Repeat("-", 40) + "\n")
		for _, p := range plans {
			if p.Action != NoAction {
				continue
			}
			fmt.Fprintf(&b, "%s: NO_ACTION | %s\n", p.Symbol, p.Reason)
		}
		b.WriteString("\n")
	}

	b.WriteString(reportRule + "\n")
	b.WriteString("End of Report\n")
	b.WriteString(reportRule)
	return b.String()
}

// formatActiveGTTs renders the refreshed trigger list printed after a live
// reconciliation, one line per trigger.
func formatActiveGTTs(gtts []GTT) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ACTIVE GTT TRIGGERS (%d):\n", len(gtts))
	b.WriteString(strings.Repeat("-", 40))
	for _, g := range gtts {
		qty := 0
		limit := 0.0
		if len(g.Orders) > 0 {
			qty = g.Orders[0].Quantity
			limit = g.Orders[0].Price
		}
		trigger := 0.0
		if len(g.TriggerValues) > 0 {
			trigger = g.TriggerValues[0]
		}
		fmt.Fprintf(&b, "\n#%d %s [%s]: %d shares @ Trigger: ₹%.2f, Limit: ₹%.2f",
			g.TriggerID, g.Symbol, g.Status, qty, trigger, limit)
	}
	return b.String()
}

// outcomeSuffix annotates an UPDATE line with its reconciliation result,
// e.g. " [ok: canceled 2, placed 2]" or " [abandoned: ...]".
func outcomeSuffix(outcomes map[string]SymbolResult, symbol string) string {
	r, ok := outcomes[symbol]
	if !ok {
		return ""
	}
	switch r.Outcome {
	case OutcomeAbandoned:
		return fmt.Sprintf(" [abandoned: %v]", r.Err)
	case OutcomePartial:
		return fmt.Sprintf(" [partial: canceled %d, placed %d: %v]", r.Canceled, r.Placed, r.Err)
	default:
		return fmt.Sprintf(" [ok: canceled %d, placed %d]", r.Canceled, r.Placed)
	}
}
