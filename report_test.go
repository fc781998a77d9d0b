package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatGTTReportEmpty(t *testing.T) {
	assert.Equal(t, "No GTT plans generated.", formatGTTReport(nil, nil))
}

func TestFormatGTTReport(t *testing.T) {
	plans := []Plan{
		{
			Symbol:   "NSE:RELIANCE",
			Exchange: "NSE",
			Action:   Update,
			NewHigh:  2600,
			Tier1:    Tier{Qty: 30, Trigger: 2340, Limit: 2314},
			Tier2:    Tier{Qty: 70, Trigger: 2080, Limit: 2054},
		},
		{
			Symbol:   "NSE:TCS",
			Exchange: "NSE",
			Action:   NoAction,
			Reason:   "LTP (3000) not a new high (3050)",
		},
	}
	results := []SymbolResult{
		{Symbol: "NSE:RELIANCE", Outcome: OutcomeOK, Canceled: 2, Placed: 2},
	}

	out := formatGTTReport(plans, results)
	assert.Contains(t, out, "SUMMARY: 2 holdings analyzed | 1 updates planned | 1 no action")
	assert.Contains(t, out, "NSE:RELIANCE: UPDATE | New High: ₹2600 [ok: canceled 2, placed 2]")
	assert.Contains(t, out, "Tier 1: 30 shares @ Trigger: ₹2340.00, Limit: ₹2314.00")
	assert.Contains(t, out, "Tier 2: 70 shares @ Trigger: ₹2080.00, Limit: ₹2054.00")
	assert.Contains(t, out, "NSE:TCS: NO_ACTION | LTP (3000) not a new high (3050)")
	assert.Contains(t, out, "End of Report")
}

func TestFormatActiveGTTs(t *testing.T) {
	gtts := []GTT{
		{
			TriggerID:     101,
			Symbol:        "NSE:RELIANCE",
			Status:        GTTStatusActive,
			TriggerValues: []float64{2340},
			Orders:        []GTTLeg{{TransactionType: "SELL", Quantity: 30, Price: 2314, OrderType: "LIMIT", Product: "CNC"}},
		},
	}
	out := formatActiveGTTs(gtts)
	assert.Contains(t, out, "ACTIVE GTT TRIGGERS (1):")
	assert.Contains(t, out, "#101 NSE:RELIANCE [active]: 30 shares @ Trigger: ₹2340.00, Limit: ₹2314.00")
}

func TestFormatGTTReportAnnotatesFailures(t *testing.T) {
	plans := []Plan{
		{Symbol: "NSE:STOCK1", Action: Update, NewHigh: 1000, Tier1: Tier{Qty: 3, Trigger: 900, Limit: 890}, Tier2: Tier{Qty: 7, Trigger: 800, Limit: 790}},
	}
	results := []SymbolResult{
		{Symbol: "NSE:STOCK1", Outcome: OutcomeAbandoned, Err: assert.AnError},
	}
	out := formatGTTReport(plans, results)
	assert.Contains(t, out, "[abandoned:")
}
