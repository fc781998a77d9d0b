// FILE: broker_kite.go
// Package main – HTTP broker for the Kite Connect v3 REST API.
//
// This broker talks directly to Zerodha's API gateway. It implements:
//   • Holdings:   GET    /portfolio/holdings
//   • LastPrices: GET    /quote/ltp?i=NSE:RELIANCE&i=...
//   • ActiveGTTs: GET    /gtt/triggers
//   • CancelGTT:  DELETE /gtt/triggers/{id}
//   • PlaceGTT:   POST   /gtt/triggers (form-encoded condition/orders JSON)
//
// Auth is the standard Kite header pair:
//   X-Kite-Version: 3
//   Authorization: token <api_key>:<access_token>
// The access token is minted by the out-of-band login flow and supplied via
// env; this client never refreshes it.
//
// Every response is the usual envelope {"status": "...", "data": ...}; any
// status >= 300 surfaces the body text so broker-side messages (token
// expiry, exchange rejects) land in the cycle log verbatim.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// KiteBroker talks to the Kite Connect API gateway.
type KiteBroker struct {
	base        string
	apiKey      string
	accessToken string
	hc          *http.Client
}

// NewKiteBrokerFromEnv builds a client from KITE_* env keys.
func NewKiteBrokerFromEnv(cfg Config) (*KiteBroker, error) {
	if strings.TrimSpace(cfg.KiteAPIKey) == "" || strings.TrimSpace(cfg.KiteAccessToken) == "" {
		return nil, fmt.Errorf("kite broker: KITE_API_KEY and KITE_ACCESS_TOKEN are required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.KiteBaseURL), "/")
	if base == "" {
		base = "https://api.kite.trade"
	}
	return &KiteBroker{
		base:        base,
		apiKey:      strings.TrimSpace(cfg.KiteAPIKey),
		accessToken: strings.TrimSpace(cfg.KiteAccessToken),
		hc:          &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (k *KiteBroker) Name() string { return "kite" }

// do runs one authenticated request and returns the raw "data" payload.
func (k *KiteBroker) do(ctx context.Context, method, path string, form url.Values) (json.RawMessage, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, k.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("newrequest %s: %w", path, err)
	}
	req.Header.Set("X-Kite-Version", "3")
	req.Header.Set("Authorization", "token "+k.apiKey+":"+k.accessToken)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	res, err := k.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	bs, _ := io.ReadAll(res.Body)
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("kite %s %d: %s", path, res.StatusCode, strings.TrimSpace(string(bs)))
	}
	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(bs, &envelope); err != nil {
		return nil, fmt.Errorf("kite %s: decode envelope: %w", path, err)
	}
	return envelope.Data, nil
}

// --- Holdings ---

func (k *KiteBroker) Holdings(ctx context.Context) ([]Holding, error) {
	data, err := k.do(ctx, http.MethodGet, "/portfolio/holdings", nil)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Tradingsymbol   string  `json:"tradingsymbol"`
		Exchange        string  `json:"exchange"`
		InstrumentToken int64   `json:"instrument_token"`
		Quantity        int     `json:"quantity"`
		LastPrice       float64 `json:"last_price"`
		Product         string  `json:"product"`
		InstrumentType  string  `json:"instrument_type"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("kite holdings: %w", err)
	}
	out := make([]Holding, 0, len(rows))
	for _, r := range rows {
		out = append(out, Holding{
			Symbol:          qualifySymbol(r.Exchange, r.Tradingsymbol),
			Exchange:        r.Exchange,
			Quantity:        r.Quantity,
			LastPrice:       r.LastPrice,
			InstrumentToken: r.InstrumentToken,
			Product:         r.Product,
			InstrumentType:  r.InstrumentType,
		})
	}
	return out, nil
}

// --- LTP ---

func (k *KiteBroker) LastPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}
	q := url.Values{}
	for _, s := range symbols {
		q.Add("i", s)
	}
	data, err := k.do(ctx, http.MethodGet, "/quote/ltp?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var rows map[string]struct {
		InstrumentToken int64   `json:"instrument_token"`
		LastPrice       float64 `json:"last_price"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("kite ltp: %w", err)
	}
	out := make(map[string]float64, len(rows))
	for sym, r := range rows {
		out[sym] = r.LastPrice
	}
	return out, nil
}

// --- GTT triggers ---

// kiteGTTRow mirrors the wire shape of one trigger in GET /gtt/triggers.
type kiteGTTRow struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	Condition struct {
		Exchange      string    `json:"exchange"`
		Tradingsymbol string    `json:"tradingsymbol"`
		TriggerValues []float64 `json:"trigger_values"`
		LastPrice     float64   `json:"last_price"`
	} `json:"condition"`
	Orders []struct {
		TransactionType string  `json:"transaction_type"`
		Quantity        int     `json:"quantity"`
		Price           float64 `json:"price"`
		OrderType       string  `json:"order_type"`
		Product         string  `json:"product"`
	} `json:"orders"`
}

func (k *KiteBroker) ActiveGTTs(ctx context.Context) ([]GTT, error) {
	data, err := k.do(ctx, http.MethodGet, "/gtt/triggers", nil)
	if err != nil {
		return nil, err
	}
	var rows []kiteGTTRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("kite gtt list: %w", err)
	}
	out := make([]GTT, 0, len(rows))
	for _, r := range rows {
		g := GTT{
			TriggerID:     r.ID,
			Symbol:        qualifySymbol(r.Condition.Exchange, r.Condition.Tradingsymbol),
			Exchange:      r.Condition.Exchange,
			Status:        r.Status,
			TriggerValues: r.Condition.TriggerValues,
		}
		for _, o := range r.Orders {
			g.Orders = append(g.Orders, GTTLeg{
				TransactionType: o.TransactionType,
				Quantity:        o.Quantity,
				Price:           o.Price,
				OrderType:       o.OrderType,
				Product:         o.Product,
			})
		}
		out = append(out, g)
	}
	return out, nil
}

func (k *KiteBroker) CancelGTT(ctx context.Context, triggerID int64) error {
	_, err := k.do(ctx, http.MethodDelete, "/gtt/triggers/"+strconv.FormatInt(triggerID, 10), nil)
	return err
}

func (k *KiteBroker) PlaceGTT(ctx context.Context, req GTTRequest) (int64, error) {
	_, tradingsymbol := splitSymbol(req.Symbol)
	condition := map[string]any{
		"exchange":       req.Exchange,
		"tradingsymbol":  tradingsymbol,
		"trigger_values": []float64{req.TriggerPrice},
		// Kite validates trigger distance against this reference price; the
		// trigger itself is the freshest figure the plan carries.
		"last_price": req.TriggerPrice,
	}
	orders := []map[string]any{{
		"exchange":         req.Exchange,
		"tradingsymbol":    tradingsymbol,
		"transaction_type": "SELL",
		"quantity":         req.Quantity,
		"order_type":       "LIMIT",
		"product":          "CNC",
		"price":            req.LimitPrice,
	}}
	condBS, _ := json.Marshal(condition)
	ordBS, _ := json.Marshal(orders)

	form := url.Values{}
	form.Set("type", "single")
	form.Set("condition", string(condBS))
	form.Set("orders", string(ordBS))

	data, err := k.do(ctx, http.MethodPost, "/gtt/triggers", form)
	if err != nil {
		return 0, err
	}
	var out struct {
		TriggerID int64 `json:"trigger_id"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("kite gtt place: %w", err)
	}
	return out.TriggerID, nil
}
