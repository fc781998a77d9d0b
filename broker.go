// FILE: broker.go
// Package main – Broker abstractions shared by all execution backends.
//
// This file defines the minimal interface the reconciliation cycle needs to
// talk to a broker backend (paper or real):
//   • Broker interface: holdings, last-traded prices, GTT list/cancel/place
//   • Common types: Holding, GTT, GTTLeg, GTTRequest
//
// Two concrete implementations live in separate files:
//   • broker_paper.go – in-memory paper broker (no external calls)
//   • broker_kite.go  – HTTP client for the Kite Connect v3 REST API
package main

import (
	"context"
	"strings"
)

// GTTStatusActive is the broker-side status of a live, untriggered GTT.
const GTTStatusActive = "active"

// Holding is one portfolio position at the time of the cycle.
// Symbol is exchange-qualified ("NSE:RELIANCE"); Exchange repeats the prefix
// so callers don't re-split.
type Holding struct {
	Symbol          string
	Exchange        string
	Quantity        int
	LastPrice       float64
	InstrumentToken int64
	Product         string
	InstrumentType  string
}

// GTTLeg is one limit order attached to a GTT trigger.
type GTTLeg struct {
	TransactionType string
	Quantity        int
	Price           float64
	OrderType       string
	Product         string
}

// GTT is a normalized view of a conditional order as listed by the broker.
// The cycle only reads these and cancels them by TriggerID.
type GTT struct {
	TriggerID     int64
	Symbol        string
	Exchange      string
	Status        string
	TriggerValues []float64
	Orders        []GTTLeg
}

// GTTRequest describes one new single-trigger sell GTT to place.
type GTTRequest struct {
	Symbol       string // exchange-qualified
	Exchange     string
	TriggerPrice float64
	LimitPrice   float64
	Quantity     int
}

// Broker is the minimal surface the cycle needs to operate.
type Broker interface {
	Name() string
	Holdings(ctx context.Context) ([]Holding, error)
	LastPrices(ctx context.Context, symbols []string) (map[string]float64, error)
	ActiveGTTs(ctx context.Context) ([]GTT, error)
	CancelGTT(ctx context.Context, triggerID int64) error
	PlaceGTT(ctx context.Context, req GTTRequest) (int64, error)
}

// splitSymbol splits "NSE:RELIANCE" into ("NSE", "RELIANCE").
// A bare tradingsymbol comes back with an empty exchange.
func splitSymbol(symbol string) (exchange string, tradingsymbol string) {
	symbol = strings.TrimSpace(symbol)
	if i := strings.Index(symbol, ":"); i >= 0 {
		return symbol[:i], symbol[i+1:]
	}
	return "", symbol
}

// qualifySymbol joins an exchange code and tradingsymbol into the
// exchange-qualified form used as the state key everywhere.
func qualifySymbol(exchange, tradingsymbol string) string {
	exchange = strings.TrimSpace(exchange)
	tradingsymbol = strings.TrimSpace(tradingsymbol)
	if exchange == "" {
		return tradingsymbol
	}
	return exchange + ":" + tradingsymbol
}
