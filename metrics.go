// FILE: metrics.go
// Package main – Prometheus metrics for observability.
//
// Exposes the primary metrics the engine updates during operation:
//   • gtt_cycles_total{result}          – Reconciliation cycles (ok|fatal)
//   • gtt_plans_total{action}           – Plans by action (update|no_action)
//   • gtt_orders_canceled_total         – GTTs successfully canceled
//   • gtt_orders_placed_total{tier}     – GTTs successfully placed (1|2)
//   • gtt_symbol_failures_total{phase}  – Per-symbol failures by phase
//                                         (cancel_lookup|cancel|place)
//   • gtt_state_save_failures_total     – Failed state persists
//   • gtt_holdings                      – Holdings considered last cycle
//   • gtt_active_triggers               – Active GTTs after reconciliation
//
// These are registered in init() and served by the HTTP handler started in
// main.go at /metrics (Prometheus text exposition format).

package main

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gtt_cycles_total",
			Help: "Reconciliation cycles by result",
		},
		[]string{"result"}, // ok|fatal
	)

	mtxPlans = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gtt_plans_total",
			Help: "Plans emitted by action",
		},
		[]string{"action"}, // update|no_action
	)

	mtxCanceled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gtt_orders_canceled_total",
			Help: "Conditional orders successfully canceled",
		},
	)

	mtxPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gtt_orders_placed_total",
			Help: "Conditional orders successfully placed",
		},
		[]string{"tier"}, // 1|2
	)

	mtxSymbolFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gtt_symbol_failures_total",
			Help: "Per-symbol broker failures by phase",
		},
		[]string{"phase"}, // cancel_lookup|cancel|place
	)

	mtxStateSaveFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gtt_state_save_failures_total",
			Help: "Failed attempts to persist the high-water-mark state",
		},
	)

	gaugeHoldings = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gtt_holdings",
			Help: "Equity holdings considered in the last cycle",
		},
	)

	gaugeActiveTriggers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gtt_active_triggers",
			Help: "Active GTT triggers after the last reconciliation",
		},
	)
)

func init() {
	prometheus.MustRegister(mtxCycles, mtxPlans)
	prometheus.MustRegister(mtxCanceled, mtxPlaced)
	prometheus.MustRegister(mtxSymbolFailures, mtxStateSaveFailures)
	prometheus.MustRegister(gaugeHoldings, gaugeActiveTriggers)
}

// Helper setters (used by trader.go/live.go; safe no-ops for tests too)
func IncCycle(result string)        { mtxCycles.WithLabelValues(result).Inc() }
func IncPlan(action string)         { mtxPlans.WithLabelValues(action).Inc() }
func IncCanceled()                  { mtxCanceled.Inc() }
func IncPlaced(tier string)         { mtxPlaced.WithLabelValues(tier).Inc() }
func IncSymbolFailure(phase string) { mtxSymbolFailures.WithLabelValues(phase).Inc() }
func IncStateSaveFailure()          { mtxStateSaveFailures.Inc() }
func SetHoldingsMetric(n int)       { gaugeHoldings.Set(float64(n)) }
func SetActiveTriggersMetric(n int) { gaugeActiveTriggers.Set(float64(n)) }
