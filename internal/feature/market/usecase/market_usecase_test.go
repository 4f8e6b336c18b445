package usecase_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"futures_backend/internal/feature/market/domain/entity"
	"futures_backend/internal/feature/market/usecase"
)

// ErrState はモックと期待値の間で共有されるセンチネルエラーです。
var ErrState = errors.New("state error")

// mockStateReader はStateReaderインターフェースのモック実装です。
type mockStateReader struct {
	LiveFunc   func(ctx context.Context, symbol string) (entity.LiveQuote, error)
	TicksFunc  func(ctx context.Context, symbol string) ([]entity.Tick, error)
	CountsFunc func(ctx context.Context, symbol string) (entity.Counts, error)
	HealthFunc func(ctx context.Context) (entity.FeedHealth, error)
}

func (m *mockStateReader) Live(ctx context.Context, symbol string) (entity.LiveQuote, error) {
	if m.LiveFunc != nil {
		return m.LiveFunc(ctx, symbol)
	}
	return entity.LiveQuote{}, nil
}

func (m *mockStateReader) Ticks(ctx context.Context, symbol string) ([]entity.Tick, error) {
	if m.TicksFunc != nil {
		return m.TicksFunc(ctx, symbol)
	}
	return nil, nil
}

func (m *mockStateReader) Counts(ctx context.Context, symbol string) (entity.Counts, error) {
	if m.CountsFunc != nil {
		return m.CountsFunc(ctx, symbol)
	}
	return entity.Counts{}, nil
}

func (m *mockStateReader) Health(ctx context.Context) (entity.FeedHealth, error) {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return entity.FeedHealth{}, nil
}

// mockCandleReader はCandleReaderインターフェースのモック実装です。
type mockCandleReader struct {
	CandlesFunc func(ctx context.Context, symbol string) ([]entity.Candle, error)
}

func (m *mockCandleReader) Candles(ctx context.Context, symbol string) ([]entity.Candle, error) {
	return m.CandlesFunc(ctx, symbol)
}

// mockMappingReader はMappingReaderインターフェースのモック実装です。
type mockMappingReader struct {
	mappings map[uint32]string
}

func (m *mockMappingReader) Mappings() map[uint32]string { return m.mappings }

func newUsecase(state *mockStateReader, candles *mockCandleReader) *usecase.MarketUsecase {
	if candles == nil {
		candles = &mockCandleReader{CandlesFunc: func(ctx context.Context, symbol string) ([]entity.Candle, error) {
			return nil, nil
		}}
	}
	return usecase.NewMarketUsecase([]string{"NQ", "MNQ"}, state, candles, &mockMappingReader{})
}

// TestMarketUsecase_CanonicalSymbol はクエリ文字列の正規化を検証します。
func TestMarketUsecase_CanonicalSymbol(t *testing.T) {
	t.Parallel()

	uc := newUsecase(&mockStateReader{}, nil)

	testCases := []struct {
		input    string
		expected string
		known    bool
	}{
		{"NQ", "NQ", true},
		{"mnq", "MNQ", true},
		{" nq ", "NQ", true},
		{"ES", "NQ", false},
		{"", "NQ", false},
	}
	for _, tc := range testCases {
		got, known := uc.CanonicalSymbol(tc.input)
		if got != tc.expected || known != tc.known {
			t.Errorf("CanonicalSymbol(%q) = (%q, %v), want (%q, %v)",
				tc.input, got, known, tc.expected, tc.known)
		}
	}
}

// TestMarketUsecase_GetLive_Fallback は未観測フィールドの
// クロスシンボルフォールバックを検証します。
func TestMarketUsecase_GetLive_Fallback(t *testing.T) {
	t.Parallel()

	quotes := map[string]entity.LiveQuote{
		"NQ": {}, // 未観測
		"MNQ": {
			Price: 15000.25, Bid: 15000, Ask: 15000.5,
			Volume: 7, Timestamp: 1000, LastUpdate: "2026-08-26 14:30:00 UTC",
		},
	}
	state := &mockStateReader{
		LiveFunc: func(ctx context.Context, symbol string) (entity.LiveQuote, error) {
			return quotes[symbol], nil
		},
		HealthFunc: func(ctx context.Context) (entity.FeedHealth, error) {
			return entity.FeedHealth{Connected: true}, nil
		},
	}
	uc := newUsecase(state, nil)

	quote, health, err := uc.GetLive(context.Background(), "NQ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !health.Connected {
		t.Error("health not propagated")
	}
	// 価格系フィールドはMNQの値で補完される
	if quote.Price != 15000.25 || quote.Bid != 15000 || quote.Ask != 15000.5 {
		t.Errorf("fallback not applied: %+v", quote)
	}
	if quote.Timestamp != 1000 || quote.LastUpdate != "2026-08-26 14:30:00 UTC" {
		t.Errorf("timestamp fallback not applied: %+v", quote)
	}
	// volumeはフォールバック対象外
	if quote.Volume != 0 {
		t.Errorf("volume must not fall back: %+v", quote)
	}
}

// TestMarketUsecase_GetLive_NoFallbackWhenPresent は自シンボルの値が
// あればフォールバックしないことを検証します。
func TestMarketUsecase_GetLive_NoFallbackWhenPresent(t *testing.T) {
	t.Parallel()

	quotes := map[string]entity.LiveQuote{
		"NQ":  {Price: 15000, Bid: 14999.75, Ask: 15000.25, Timestamp: 2000},
		"MNQ": {Price: 14990, Bid: 14989.75, Ask: 14990.25, Timestamp: 1000},
	}
	state := &mockStateReader{
		LiveFunc: func(ctx context.Context, symbol string) (entity.LiveQuote, error) {
			return quotes[symbol], nil
		},
	}
	uc := newUsecase(state, nil)

	quote, _, err := uc.GetLive(context.Background(), "NQ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(quote, quotes["NQ"]) {
		t.Errorf("quote overwritten by fallback: got %+v, want %+v", quote, quotes["NQ"])
	}
}

// TestMarketUsecase_GetCandles はlimitの丸めと空履歴時のフォールバックを検証します。
func TestMarketUsecase_GetCandles(t *testing.T) {
	t.Parallel()

	nqCandles := []entity.Candle{
		{Time: 60, Close: 15000},
		{Time: 120, Close: 15001},
		{Time: 180, Close: 15002},
	}
	mnqCandles := []entity.Candle{{Time: 60, Close: 14990}}

	testCases := []struct {
		name      string
		symbol    string
		limit     int
		candles   map[string][]entity.Candle
		expected  []entity.Candle
	}{
		{
			name:     "limit truncates to most recent",
			symbol:   "NQ",
			limit:    1,
			candles:  map[string][]entity.Candle{"NQ": nqCandles},
			expected: nqCandles[2:],
		},
		{
			name:     "zero limit uses default",
			symbol:   "NQ",
			limit:    0,
			candles:  map[string][]entity.Candle{"NQ": nqCandles},
			expected: nqCandles,
		},
		{
			name:     "limit above capacity uses default",
			symbol:   "NQ",
			limit:    usecase.MaxCandleLimit + 1,
			candles:  map[string][]entity.Candle{"NQ": nqCandles},
			expected: nqCandles,
		},
		{
			name:     "empty history falls back to other symbol",
			symbol:   "NQ",
			limit:    100,
			candles:  map[string][]entity.Candle{"MNQ": mnqCandles},
			expected: mnqCandles,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			candles := &mockCandleReader{
				CandlesFunc: func(ctx context.Context, symbol string) ([]entity.Candle, error) {
					return tc.candles[symbol], nil
				},
			}
			uc := newUsecase(&mockStateReader{}, candles)

			got, err := uc.GetCandles(context.Background(), tc.symbol, tc.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("candles mismatch: got %+v, want %+v", got, tc.expected)
			}
		})
	}
}

// TestMarketUsecase_GetCandles_Error はリーダーのエラーが伝播することを検証します。
func TestMarketUsecase_GetCandles_Error(t *testing.T) {
	t.Parallel()

	candles := &mockCandleReader{
		CandlesFunc: func(ctx context.Context, symbol string) ([]entity.Candle, error) {
			return nil, ErrState
		},
	}
	uc := newUsecase(&mockStateReader{}, candles)

	if _, err := uc.GetCandles(context.Background(), "NQ", 10); !errors.Is(err, ErrState) {
		t.Errorf("expected %v, got %v", ErrState, err)
	}
}

// TestMarketUsecase_GetTicks はティックのクランプとフォールバックを検証します。
func TestMarketUsecase_GetTicks(t *testing.T) {
	t.Parallel()

	nqTicks := []entity.Tick{{Time: 1, Price: 15000}, {Time: 2, Price: 15001}}

	state := &mockStateReader{
		TicksFunc: func(ctx context.Context, symbol string) ([]entity.Tick, error) {
			if symbol == "MNQ" {
				return nqTicks, nil // フォールバック先
			}
			return nil, nil
		},
	}
	uc := newUsecase(state, nil)

	got, err := uc.GetTicks(context.Background(), "NQ", 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, nqTicks) {
		t.Errorf("fallback ticks mismatch: got %+v, want %+v", got, nqTicks)
	}

	// 最新1件への切り詰め
	state.TicksFunc = func(ctx context.Context, symbol string) ([]entity.Tick, error) {
		return nqTicks, nil
	}
	got, _ = uc.GetTicks(context.Background(), "NQ", 1)
	if !reflect.DeepEqual(got, nqTicks[1:]) {
		t.Errorf("limit not applied: got %+v", got)
	}
}

// TestMarketUsecase_GetHealth はヘルスレポートの合成を検証します。
func TestMarketUsecase_GetHealth(t *testing.T) {
	t.Parallel()

	state := &mockStateReader{
		LiveFunc: func(ctx context.Context, symbol string) (entity.LiveQuote, error) {
			if symbol == "NQ" {
				return entity.LiveQuote{Price: 15000, LastUpdate: "2026-08-26 14:30:00 UTC"}, nil
			}
			return entity.LiveQuote{}, nil
		},
		CountsFunc: func(ctx context.Context, symbol string) (entity.Counts, error) {
			if symbol == "NQ" {
				return entity.Counts{Candles: 3, Ticks: 12}, nil
			}
			return entity.Counts{}, nil
		},
		HealthFunc: func(ctx context.Context) (entity.FeedHealth, error) {
			return entity.FeedHealth{Connected: false, LastError: "read record: EOF"}, nil
		},
	}
	mappings := &mockMappingReader{mappings: map[uint32]string{42: "NQ"}}
	uc := usecase.NewMarketUsecase([]string{"NQ", "MNQ"}, state, &mockCandleReader{
		CandlesFunc: func(ctx context.Context, symbol string) ([]entity.Candle, error) { return nil, nil },
	}, mappings)

	report, err := uc.GetHealth(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := entity.HealthReport{
		Feed: entity.FeedHealth{Connected: false, LastError: "read record: EOF"},
		Symbols: map[string]entity.SymbolHealth{
			"NQ":  {Price: 15000, LastUpdate: "2026-08-26 14:30:00 UTC", Candles: 3, Ticks: 12},
			"MNQ": {},
		},
		Instruments: map[uint32]string{42: "NQ"},
	}
	if !reflect.DeepEqual(report, expected) {
		t.Errorf("report mismatch:\n got %+v\nwant %+v", report, expected)
	}
}
