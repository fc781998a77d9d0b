package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedBroker is a deterministic in-memory Broker with per-call failure
// injection, used to exercise the reconciler's failure classes.
type scriptedBroker struct {
	holdings []Holding
	prices   map[string]float64
	active   []GTT

	holdingsErr error
	pricesErr   error
	activeErr   error
	cancelErr   map[int64]error
	placeErr    map[string]error // keyed by symbol; applied to every tier

	canceled []int64
	placed   []GTTRequest
}

func (s *scriptedBroker) Name() string { return "scripted" }

func (s *scriptedBroker) Holdings(ctx context.Context) ([]Holding, error) {
	return s.holdings, s.holdingsErr
}

func (s *scriptedBroker) LastPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if s.pricesErr != nil {
		return nil, s.pricesErr
	}
	out := map[string]float64{}
	for _, sym := range symbols {
		if px, ok := s.prices[sym]; ok {
			out[sym] = px
		}
	}
	return out, nil
}

func (s *scriptedBroker) ActiveGTTs(ctx context.Context) ([]GTT, error) {
	return s.active, s.activeErr
}

func (s *scriptedBroker) CancelGTT(ctx context.Context, triggerID int64) error {
	if err := s.cancelErr[triggerID]; err != nil {
		return err
	}
	s.canceled = append(s.canceled, triggerID)
	return nil
}

func (s *scriptedBroker) PlaceGTT(ctx context.Context, req GTTRequest) (int64, error) {
	if err := s.placeErr[req.Symbol]; err != nil {
		return 0, err
	}
	s.placed = append(s.placed, req)
	return int64(9000 + len(s.placed)), nil
}

func cycleConfig(t *testing.T) Config {
	cfg := testConfig()
	cfg.StateFile = filepath.Join(t.TempDir(), "state", "gtt_state.json")
	return cfg
}

func activeGTT(id int64, symbol string) GTT {
	return GTT{
		TriggerID:     id,
		Symbol:        symbol,
		Exchange:      "NSE",
		Status:        GTTStatusActive,
		TriggerValues: []float64{100},
		Orders:        []GTTLeg{{TransactionType: "SELL", Quantity: 1, Price: 99, OrderType: "LIMIT", Product: "CNC"}},
	}
}

func TestCycleAbandonedSymbolDoesNotPoisonOthers(t *testing.T) {
	cfg := cycleConfig(t)
	broker := &scriptedBroker{
		holdings: []Holding{
			{Symbol: "NSE:STOCK1", Exchange: "NSE", Quantity: 100, LastPrice: 1000},
			{Symbol: "NSE:STOCK2", Exchange: "NSE", Quantity: 50, LastPrice: 2000},
		},
		prices: map[string]float64{"NSE:STOCK1": 1000, "NSE:STOCK2": 2000},
		active: []GTT{
			// Malformed listing for STOCK1: live trigger with no addressable
			// ID. The selection step must abandon the symbol.
			{TriggerID: 0, Symbol: "NSE:STOCK1", Exchange: "NSE", Status: GTTStatusActive},
			activeGTT(41, "NSE:STOCK2"),
		},
	}
	trader := NewTrader(cfg, broker)

	plans, results, _, err := trader.runCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2) // both symbols appear in the plan list
	require.Len(t, results, 2)

	bysym := map[string]SymbolResult{}
	for _, r := range results {
		bysym[r.Symbol] = r
	}
	assert.Equal(t, OutcomeAbandoned, bysym["NSE:STOCK1"].Outcome)
	assert.Error(t, bysym["NSE:STOCK1"].Err)
	assert.Equal(t, OutcomeOK, bysym["NSE:STOCK2"].Outcome)
	assert.Equal(t, 1, bysym["NSE:STOCK2"].Canceled)
	assert.Equal(t, 2, bysym["NSE:STOCK2"].Placed)

	// No placement was attempted for the abandoned symbol.
	for _, req := range broker.placed {
		assert.NotEqual(t, "NSE:STOCK1", req.Symbol)
	}

	// Persisted state contains STOCK2's new high and omits STOCK1 entirely.
	persisted := loadGTTState(cfg.StateFile)
	assert.NotContains(t, persisted, "NSE:STOCK1")
	require.Contains(t, persisted, "NSE:STOCK2")
	assert.Equal(t, 2000.0, persisted["NSE:STOCK2"].LastHighPrice)
}

func TestReconcileSkipsZeroQuantityTier(t *testing.T) {
	cfg := cycleConfig(t)
	cfg.Tier1QtyFraction = 0 // tier1 qty truncates to 0 for any position
	broker := &scriptedBroker{
		holdings: []Holding{{Symbol: "NSE:SMALL", Exchange: "NSE", Quantity: 5, LastPrice: 100}},
		prices:   map[string]float64{"NSE:SMALL": 100},
	}
	trader := NewTrader(cfg, broker)

	_, results, _, err := trader.runCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, OutcomeOK, results[0].Outcome)

	// Exactly one order placed: tier2 with the full position.
	require.Len(t, broker.placed, 1)
	assert.Equal(t, 5, broker.placed[0].Quantity)
}

func TestReconcileCancelFailureDoesNotBlockRest(t *testing.T) {
	cfg := cycleConfig(t)
	broker := &scriptedBroker{
		holdings: []Holding{{Symbol: "NSE:STOCK1", Exchange: "NSE", Quantity: 100, LastPrice: 1000}},
		prices:   map[string]float64{"NSE:STOCK1": 1000},
		active: []GTT{
			activeGTT(11, "NSE:STOCK1"),
			activeGTT(12, "NSE:STOCK1"),
		},
		cancelErr: map[int64]error{11: errors.New("exchange reject")},
	}
	trader := NewTrader(cfg, broker)

	_, results, _, err := trader.runCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	// One cancel failed, the other succeeded; placement still ran and the
	// high-water mark still advanced.
	assert.Equal(t, OutcomePartial, results[0].Outcome)
	assert.Equal(t, 1, results[0].Canceled)
	assert.Equal(t, []int64{12}, broker.canceled)
	assert.Equal(t, 2, results[0].Placed)

	persisted := loadGTTState(cfg.StateFile)
	require.Contains(t, persisted, "NSE:STOCK1")
	assert.Equal(t, 1000.0, persisted["NSE:STOCK1"].LastHighPrice)
}

func TestReconcilePlaceFailureStillAdvancesMark(t *testing.T) {
	cfg := cycleConfig(t)
	broker := &scriptedBroker{
		holdings: []Holding{{Symbol: "NSE:STOCK1", Exchange: "NSE", Quantity: 100, LastPrice: 1500}},
		prices:   map[string]float64{"NSE:STOCK1": 1500},
		placeErr: map[string]error{"NSE:STOCK1": errors.New("insufficient margin")},
	}
	trader := NewTrader(cfg, broker)

	_, results, _, err := trader.runCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, OutcomePartial, results[0].Outcome)
	assert.Equal(t, 0, results[0].Placed)

	// Placement is best effort: the next new high re-arms naturally.
	persisted := loadGTTState(cfg.StateFile)
	require.Contains(t, persisted, "NSE:STOCK1")
	assert.Equal(t, 1500.0, persisted["NSE:STOCK1"].LastHighPrice)
}

func TestCycleNoActionLeavesStateUntouched(t *testing.T) {
	cfg := cycleConfig(t)
	require.True(t, saveGTTState(cfg.StateFile, GTTState{"NSE:TCS": {LastHighPrice: 3050}}))

	broker := &scriptedBroker{
		holdings: []Holding{{Symbol: "NSE:TCS", Exchange: "NSE", Quantity: 100, LastPrice: 3000}},
		prices:   map[string]float64{"NSE:TCS": 3000},
	}
	trader := NewTrader(cfg, broker)

	plans, results, _, err := trader.runCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, NoAction, plans[0].Action)
	assert.Empty(t, results)
	assert.Empty(t, broker.placed)
	assert.Empty(t, broker.canceled)

	persisted := loadGTTState(cfg.StateFile)
	assert.Equal(t, 3050.0, persisted["NSE:TCS"].LastHighPrice)
}

func TestCycleFatalFetchWritesNoState(t *testing.T) {
	cfg := cycleConfig(t)
	broker := &scriptedBroker{holdingsErr: errors.New("token expired")}
	trader := NewTrader(cfg, broker)

	_, _, _, err := trader.runCycle(context.Background())
	require.Error(t, err)

	_, statErr := os.Stat(cfg.StateFile)
	assert.True(t, os.IsNotExist(statErr), "fatal cycle must not write state")
}

func TestCycleFatalActiveGTTFetch(t *testing.T) {
	cfg := cycleConfig(t)
	broker := &scriptedBroker{
		holdings:  []Holding{{Symbol: "NSE:STOCK1", Exchange: "NSE", Quantity: 10, LastPrice: 100}},
		prices:    map[string]float64{"NSE:STOCK1": 100},
		activeErr: errors.New("gateway timeout"),
	}
	trader := NewTrader(cfg, broker)

	_, _, _, err := trader.runCycle(context.Background())
	require.Error(t, err)

	_, statErr := os.Stat(cfg.StateFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEquityHoldingsFilter(t *testing.T) {
	in := []Holding{
		{Symbol: "NSE:OK", Exchange: "NSE", Quantity: 10, InstrumentType: "EQ"},
		{Symbol: "NSE:ZERO", Exchange: "NSE", Quantity: 0, InstrumentType: "EQ"},
		{Symbol: "NSE:FUT", Exchange: "NSE", Quantity: 5, InstrumentType: "FUT"},
		{Symbol: "BARE", Quantity: 3}, // missing exchange gets the default
	}
	out := equityHoldings(in, "NSE")
	require.Len(t, out, 2)
	assert.Equal(t, "NSE:OK", out[0].Symbol)
	assert.Equal(t, "NSE:BARE", out[1].Symbol)
	assert.Equal(t, "NSE", out[1].Exchange)
}

func TestPaperBrokerRoundTrip(t *testing.T) {
	p := NewEmptyPaperBroker()
	p.AddHolding(Holding{Symbol: "NSE:ABC", Exchange: "NSE", Quantity: 10, LastPrice: 500, InstrumentType: "EQ"})

	ctx := context.Background()
	id, err := p.PlaceGTT(ctx, GTTRequest{Symbol: "NSE:ABC", Exchange: "NSE", TriggerPrice: 450, LimitPrice: 445, Quantity: 10})
	require.NoError(t, err)

	gtts, err := p.ActiveGTTs(ctx)
	require.NoError(t, err)
	require.Len(t, gtts, 1)
	assert.Equal(t, GTTStatusActive, gtts[0].Status)

	require.NoError(t, p.CancelGTT(ctx, id))
	gtts, _ = p.ActiveGTTs(ctx)
	assert.Empty(t, gtts)

	assert.Error(t, p.CancelGTT(ctx, id)) // already gone
}
