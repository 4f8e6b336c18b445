// Package dto は市況データAPIのレスポンスDTOを定義します。
package dto

// LiveResponse は最新値エンドポイントのレスポンスDTOです。
// 未観測のフィールドはnullになります。
type LiveResponse struct {
	Symbol     string   `json:"symbol"`
	Price      *float64 `json:"price"`
	Bid        *float64 `json:"bid"`
	Ask        *float64 `json:"ask"`
	Volume     int64    `json:"volume"`
	Timestamp  *int64   `json:"timestamp"`
	Source     string   `json:"source"`
	Connected  bool     `json:"connected"`
	LastUpdate *string  `json:"last_update"`
	Error      *string  `json:"error"`
}

// CandleItem は1分足1本分のレスポンスDTOです。
type CandleItem struct {
	Time      int64   `json:"time"`       // バケット開始（エポック秒）
	Open      float64 `json:"open"`       // 始値
	High      float64 `json:"high"`       // 高値
	Low       float64 `json:"low"`        // 安値
	Close     float64 `json:"close"`      // 終値
	Volume    int64   `json:"volume"`     // 出来高
	TickCount int64   `json:"tick_count"` // 受理ティック数
}

// CandlesResponse はキャンドル一覧のエンベロープです。
type CandlesResponse struct {
	Candles  []CandleItem `json:"candles"`
	Count    int          `json:"count"`
	Interval string       `json:"interval"`
	Symbol   string       `json:"symbol"`
}

// TickItem は生ティック1件分のレスポンスDTOです。
type TickItem struct {
	Time   int64   `json:"time"`
	Price  float64 `json:"price"`
	Volume int64   `json:"volume"`
}

// TicksResponse はティック一覧のエンベロープです。
type TicksResponse struct {
	Ticks  []TickItem `json:"ticks"`
	Count  int        `json:"count"`
	Symbol string     `json:"symbol"`
}

// SymbolHealth はヘルスレポートのシンボル別セクションです。
type SymbolHealth struct {
	Price      *float64 `json:"price"`
	LastUpdate *string  `json:"last_update"`
	Candles    int      `json:"candles"`
	Ticks      int      `json:"ticks"`
}

// HealthResponse はヘルスエンドポイントのレスポンスDTOです。
type HealthResponse struct {
	Status    string                  `json:"status"`
	Connected bool                    `json:"connected"`
	Error     *string                 `json:"error"`
	Symbols   map[string]SymbolHealth `json:"symbols"`
	IIDMap    map[string]string       `json:"iid_map"`
}
