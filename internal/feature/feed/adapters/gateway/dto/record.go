// Package dto defines the wire representation of gateway messages.
package dto

// AuthRequest is the first line sent on a new connection.
type AuthRequest struct {
	Key string `json:"key"`
}

// SubscribeRequest asks the gateway to start streaming the given symbols.
type SubscribeRequest struct {
	Action     string   `json:"action"` // always "subscribe"
	Dataset    string   `json:"dataset"`
	Schema     string   `json:"schema"`
	Symbols    []string `json:"symbols"`
	SymbolType string   `json:"stype_in"`
}

// Record mirrors one decoded gateway record. Trade, quote and metadata
// fields are all optional; a record may carry any combination.
type Record struct {
	InstrumentID  *uint32 `json:"instrument_id,omitempty"`
	Price         *int64  `json:"price,omitempty"` // fixed-point, 1e9 scale
	Levels        []Level `json:"levels,omitempty"`
	Size          *uint32 `json:"size,omitempty"`
	StypeInSymbol string  `json:"stype_in_symbol,omitempty"`
	PrettySymbol  string  `json:"pretty_symbol,omitempty"`
	RawSymbol     string  `json:"raw_symbol,omitempty"`
}

// Level is one price level of a top-of-book quote.
type Level struct {
	BidPx *int64 `json:"bid_px"` // fixed-point, 1e9 scale
	AskPx *int64 `json:"ask_px"`
}
