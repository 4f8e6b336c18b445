// Package gateway provides a client for the upstream market-data gateway.
// The gateway speaks newline-delimited JSON over TCP: one auth line, one
// subscribe line, then a stream of decoded records.
package gateway

import (
	"os"
	"strings"
	"time"
)

// Config holds configuration for the gateway client.
type Config struct {
	APIKey      string        // Credential sent on connect; empty means the feed stays offline
	Addr        string        // host:port of the gateway
	Dataset     string        // Upstream dataset (e.g. "GLBX.MDP3")
	Schema      string        // Record schema (e.g. "mbp-1")
	Symbols     []string      // Raw subscription symbols (e.g. "NQ.c.0")
	SymbolType  string        // Symbology of Symbols (e.g. "continuous")
	DialTimeout time.Duration // TCP connect timeout
}

// LoadConfig loads gateway configuration from environment variables,
// defaulting to the CME Globex NQ/MNQ continuous front-month subscription.
func LoadConfig() Config {
	return Config{
		APIKey:      os.Getenv("FEED_API_KEY"),
		Addr:        envOr("FEED_GATEWAY_ADDR", "127.0.0.1:13000"),
		Dataset:     envOr("FEED_DATASET", "GLBX.MDP3"),
		Schema:      envOr("FEED_SCHEMA", "mbp-1"),
		Symbols:     splitSymbols(envOr("FEED_SYMBOLS", "NQ.c.0,MNQ.c.0")),
		SymbolType:  envOr("FEED_SYMBOL_TYPE", "continuous"),
		DialTimeout: 10 * time.Second,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
