// FILE: state.go
// Package main – Durable high-water-mark state.
//
// The state file is a small JSON object keyed by exchange-qualified symbol:
//
//	{ "NSE:RELIANCE": { "last_high_price": 2600 } }
//
// Operators hand-edit this file to reset a symbol (e.g., after re-entering a
// position), so the schema is fixed and extra fields are tolerated on load.
//
// Failure semantics:
//   • loadGTTState never fails upward: missing, empty, or malformed content
//     all come back as an empty state (distinguished only in logs).
//   • saveGTTState returns false instead of an error; on failure the
//     previous on-disk file remains the last known good state.

package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
)

// SymbolState is the persisted per-symbol record. LastHighPrice is
// monotonically non-decreasing across cycles unless externally reset.
type SymbolState struct {
	LastHighPrice float64 `json:"last_high_price"`
}

// GTTState maps exchange-qualified symbols to their stored high-water mark.
type GTTState map[string]SymbolState

// loadGTTState reads the state file, returning an empty state for any
// condition that would otherwise be an error.
func loadGTTState(path string) GTTState {
	bs, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("[STATE] %s does not exist, starting with empty state", path)
		return GTTState{}
	}
	if err != nil {
		log.Printf("[STATE] read %s: %v (starting with empty state)", path, err)
		return GTTState{}
	}
	if len(bs) == 0 {
		log.Printf("[STATE] %s is empty, starting with empty state", path)
		return GTTState{}
	}
	var st GTTState
	if err := json.Unmarshal(bs, &st); err != nil {
		log.Printf("[STATE] invalid JSON in %s: %v (starting with empty state)", path, err)
		return GTTState{}
	}
	if st == nil {
		st = GTTState{}
	}
	log.Printf("[STATE] loaded %d symbol(s) from %s", len(st), path)
	return st
}

// saveGTTState writes the full state atomically enough for single-process
// use (tmp file + rename), creating parent directories as needed.
func saveGTTState(path string, st GTTState) bool {
	if path == "" {
		return false
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("[STATE] mkdir %s: %v", dir, err)
			return false
		}
	}
	bs, err := json.MarshalIndent(st, "", " ")
	if err != nil {
		log.Printf("[STATE] marshal: %v", err)
		return false
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, bs, 0644); err != nil {
		log.Printf("[STATE] write %s: %v", tmp, err)
		return false
	}
	if err := os.Rename(tmp, path); err != nil {
		log.Printf("[STATE] rename %s: %v", path, err)
		return false
	}
	log.Printf("[STATE] saved %d symbol(s) to %s", len(st), path)
	return true
}
