// FILE: broker_paper.go
// Package main – In-memory paper broker (no external dependencies).
//
// This broker simulates the Kite surface using a seeded portfolio. It's used
// for dry runs and tests: plans and reconciliation run exactly as in live
// mode, but cancels and placements only mutate the in-memory GTT book.
//
// Methods:
//   • Name() string
//   • Holdings(ctx) ([]Holding, error)
//   • LastPrices(ctx, symbols) (map[string]float64, error)
//   • ActiveGTTs(ctx) ([]GTT, error)
//   • CancelGTT(ctx, triggerID) error
//   • PlaceGTT(ctx, req) (int64, error)
//
// Extra helpers for seeding scenarios:
//   • SetPrice(symbol, price)    – move the LTP between cycles
//   • SeedGTT(gtt)               – pre-load an existing trigger
package main

import (
	"context"
	"fmt"
	"sync"
)

// PaperBroker keeps a mutable portfolio and GTT book guarded by one mutex.
type PaperBroker struct {
	mu       sync.Mutex
	holdings []Holding
	prices   map[string]float64
	book     []GTT
	nextID   int64
}

// NewPaperBroker seeds the demo portfolio used by dry runs.
func NewPaperBroker() *PaperBroker {
	p := &PaperBroker{prices: map[string]float64{}, nextID: 1000}
	seed := []Holding{
		{Symbol: "NSE:RELIANCE", Exchange: "NSE", Quantity: 100, LastPrice: 2650.0, InstrumentToken: 738561, Product: "CNC", InstrumentType: "EQ"},
		{Symbol: "NSE:TCS", Exchange: "NSE", Quantity: 50, LastPrice: 3700.0, InstrumentToken: 2953217, Product: "CNC", InstrumentType: "EQ"},
		{Symbol: "NSE:INFY", Exchange: "NSE", Quantity: 75, LastPrice: 1450.0, InstrumentToken: 408065, Product: "CNC", InstrumentType: "EQ"},
		{Symbol: "NSE:HDFC", Exchange: "NSE", Quantity: 25, LastPrice: 1580.0, InstrumentToken: 340481, Product: "CNC", InstrumentType: "EQ"},
	}
	for _, h := range seed {
		p.holdings = append(p.holdings, h)
		p.prices[h.Symbol] = h.LastPrice
	}
	return p
}

// NewEmptyPaperBroker returns a paper broker with nothing seeded (tests).
func NewEmptyPaperBroker() *PaperBroker {
	return &PaperBroker{prices: map[string]float64{}, nextID: 1000}
}

func (p *PaperBroker) Name() string { return "paper" }

func (p *PaperBroker) Holdings(ctx context.Context) ([]Holding, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Holding, len(p.holdings))
	copy(out, p.holdings)
	return out, nil
}

func (p *PaperBroker) LastPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		if px, ok := p.prices[s]; ok {
			out[s] = px
		}
	}
	return out, nil
}

func (p *PaperBroker) ActiveGTTs(ctx context.Context) ([]GTT, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]GTT, len(p.book))
	copy(out, p.book)
	return out, nil
}

func (p *PaperBroker) CancelGTT(ctx context.Context, triggerID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, g := range p.book {
		if g.TriggerID == triggerID {
			p.book = append(p.book[:i], p.book[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("paper: no trigger %d", triggerID)
}

func (p *PaperBroker) PlaceGTT(ctx context.Context, req GTTRequest) (int64, error) {
	if req.Quantity <= 0 {
		return 0, fmt.Errorf("paper: quantity must be > 0")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.book = append(p.book, GTT{
		TriggerID:     p.nextID,
		Symbol:        req.Symbol,
		Exchange:      req.Exchange,
		Status:        GTTStatusActive,
		TriggerValues: []float64{req.TriggerPrice},
		Orders: []GTTLeg{{
			TransactionType: "SELL",
			Quantity:        req.Quantity,
			Price:           req.LimitPrice,
			OrderType:       "LIMIT",
			Product:         "CNC",
		}},
	})
	return p.nextID, nil
}

// --- Scenario helpers (dry runs and tests) ---

// AddHolding appends a holding and records its LTP.
func (p *PaperBroker) AddHolding(h Holding) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.holdings = append(p.holdings, h)
	p.prices[h.Symbol] = h.LastPrice
}

// SetPrice moves the last traded price for a symbol between cycles.
func (p *PaperBroker) SetPrice(symbol string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[symbol] = price
	for i := range p.holdings {
		if p.holdings[i].Symbol == symbol {
			p.holdings[i].LastPrice = price
		}
	}
}

// SeedGTT pre-loads an existing trigger into the book.
func (p *PaperBroker) SeedGTT(g GTT) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if g.TriggerID > p.nextID {
		p.nextID = g.TriggerID
	}
	p.book = append(p.book, g)
}
