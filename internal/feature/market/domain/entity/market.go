// Package entity defines the domain models for the market feature.
package entity

import "time"

// Candle represents a 1-minute OHLCV (Open, High, Low, Close, Volume)
// aggregate for a futures symbol. Time is the bucket start in epoch seconds,
// floored to the minute.
type Candle struct {
	Time      int64   // Bucket start (epoch seconds, multiple of 60)
	Open      float64 // First accepted price in the bucket
	High      float64 // Highest accepted price
	Low       float64 // Lowest accepted price
	Close     float64 // Most recent accepted price
	Volume    int64   // Summed trade size
	TickCount int64   // Number of accepted observations
}

// Tick is a single raw price observation kept for fine-grained charting.
type Tick struct {
	Time   int64   // Epoch seconds at processing time
	Price  float64 // Accepted price
	Volume int64   // Trade size of this observation
}

// LiveQuote is the most recently accepted snapshot for a symbol.
// Zero-valued fields mean the field has never been observed.
type LiveQuote struct {
	Price      float64 // Last accepted price (trade or quote mid)
	Bid        float64 // Best bid, 0 until a valid quote arrives
	Ask        float64 // Best ask, 0 until a valid quote arrives
	Volume     int64   // Size of the last accepted observation
	Timestamp  int64   // Epoch milliseconds of the last update, 0 = never
	LastUpdate string  // Human readable UTC time of the last update
}

// Observation is one accepted reading flowing from the feed into state.
// It is produced per record and consumed immediately; never retained.
type Observation struct {
	Symbol    string
	Price     float64
	Bid       float64 // 0 when the record carried no acceptable quote
	Ask       float64
	Size      int64 // At least 1 for every accepted observation
	EventTime time.Time
}

// FeedHealth reports the state of the upstream feed connection.
type FeedHealth struct {
	Connected bool
	LastError string // Empty while healthy
}

// Counts holds the current ring sizes for one symbol.
type Counts struct {
	Candles int
	Ticks   int
}

// SymbolHealth is the per-symbol section of a health report.
type SymbolHealth struct {
	Price      float64
	LastUpdate string
	Candles    int
	Ticks      int
}

// HealthReport aggregates feed status, per-symbol counters and the learned
// instrument-id mapping for the health endpoint.
type HealthReport struct {
	Feed        FeedHealth
	Symbols     map[string]SymbolHealth
	Instruments map[uint32]string
}
