// FILE: main.go
// Package main – Program entrypoint and HTTP/metrics server.
//
// Boot sequence:
//   1) loadBotEnv()            – read .env (no shell exports required)
//   2) cfg := loadConfigFromEnv() – build runtime Config
//   3) validateConfig(cfg)     – warn on suspicious tier geometry
//   4) wire broker/trader
//   5) start Prometheus /healthz server on cfg.Port
//   6) runOnce or runLive based on flags
//
// Flags:
//   -once             Run a single reconciliation cycle and exit
//   -live             Run the interval loop (default when -once absent)
//   -interval <sec>   Loop interval in seconds (default 300)
//
// Example:
//   go run . -live -interval 300
//
// Notes:
//   - BROKER=kite selects the real Kite Connect client (needs KITE_API_KEY
//     and KITE_ACCESS_TOKEN); anything else gets the paper broker.
//   - DRY_RUN=true forces the paper broker regardless of BROKER.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// ---- Flags ----
	var once bool
	var live bool
	var intervalSec int
	flag.BoolVar(&once, "once", false, "Run a single cycle and exit")
	flag.BoolVar(&live, "live", false, "Run the interval loop")
	flag.IntVar(&intervalSec, "interval", 300, "Loop interval in seconds")
	flag.Parse()

	// ---- Environment & Config ----
	loadBotEnv()
	cfg := loadConfigFromEnv()
	validateConfig(cfg)

	// ---- Broker wiring ----
	var broker Broker
	switch {
	case cfg.DryRun:
		log.Printf("[BOOT] DRY_RUN=true: using paper broker")
		broker = NewPaperBroker()
	case strings.EqualFold(getEnv("BROKER", "paper"), "kite"):
		kb, err := NewKiteBrokerFromEnv(cfg)
		if err != nil {
			log.Fatalf("kite broker init: %v", err)
		}
		broker = kb
	default:
		broker = NewPaperBroker()
	}

	trader := NewTrader(cfg, broker)

	// ---- HTTP metrics/health ----
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
	go func() {
		log.Printf("serving metrics on :%d/metrics", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	// ---- Run selected mode ----
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if once && !live {
		if err := runOnce(ctx, trader); err != nil {
			log.Printf("[ERROR] cycle aborted: %v", err)
		}
	} else {
		runLive(ctx, trader, intervalSec)
	}

	// ---- Graceful shutdown for HTTP server ----
	shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)
}
