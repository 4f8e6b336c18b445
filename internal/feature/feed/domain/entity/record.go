// Package entity defines the domain models for the feed feature.
package entity

// PriceScale is the fixed-point denominator of upstream price fields.
// Raw integer prices are divided by this to obtain decimal currency units.
const PriceScale = 1e9

// Record is one decoded upstream record. Every field is optional: a record
// may be a trade, a top-of-book quote, pure instrument metadata, or any
// combination. Pointer fields distinguish "absent" from zero.
type Record struct {
	InstrumentID *uint32  // Feed-assigned contract handle
	TradePrice   *int64   // Fixed-point trade price (PriceScale)
	BidPrice     *int64   // Fixed-point best bid (PriceScale)
	AskPrice     *int64   // Fixed-point best ask (PriceScale)
	Size         *uint32  // Trade size
	SymbolHints  []string // Human-readable symbol fields, priority order
}

// HasMarketData reports whether the record carries anything worth
// extracting (a trade price or a complete top-of-book quote).
func (r Record) HasMarketData() bool {
	return r.TradePrice != nil || (r.BidPrice != nil && r.AskPrice != nil)
}

// Subscription describes the upstream subscription request issued once per
// session after connecting.
type Subscription struct {
	Dataset    string
	Schema     string
	Symbols    []string
	SymbolType string
}
