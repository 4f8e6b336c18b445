// Package usecase は市況データ照会のビジネスロジックを実装します。
package usecase

import (
	"context"
	"strings"

	"futures_backend/internal/feature/market/domain/entity"
)

const (
	// DefaultCandleLimit はキャンドルクエリのデフォルト返却件数です。
	DefaultCandleLimit = 1440
	// MaxCandleLimit はキャンドルの最大返却件数（リング容量）です。
	MaxCandleLimit = 1440
	// DefaultTickLimit はティッククエリのデフォルト返却件数です。
	DefaultTickLimit = 5000
	// MaxTickLimit はティックの最大返却件数（リング容量）です。
	MaxTickLimit = 10000
)

// StateReader は共有状態のスナップショット読み取りを抽象化します。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (store).
type StateReader interface {
	Live(ctx context.Context, symbol string) (entity.LiveQuote, error)
	Ticks(ctx context.Context, symbol string) ([]entity.Tick, error)
	Counts(ctx context.Context, symbol string) (entity.Counts, error)
	Health(ctx context.Context) (entity.FeedHealth, error)
}

// CandleReader はキャンドル履歴の読み取りを抽象化します。
// Redisキャッシュのデコレータを差し込めるよう分離しています。
type CandleReader interface {
	Candles(ctx context.Context, symbol string) ([]entity.Candle, error)
}

// MappingReader は学習済みinstrumentマッピングの読み取りを抽象化します。
type MappingReader interface {
	Mappings() map[uint32]string
}

// MarketUsecase は市況データ照会のユースケースを定義します。
type MarketUsecase struct {
	symbols  []string // 先頭がプライマリシンボル
	state    StateReader
	candles  CandleReader
	mappings MappingReader
}

// NewMarketUsecase はMarketUsecaseの新しいインスタンスを生成します。
func NewMarketUsecase(symbols []string, state StateReader, candles CandleReader, mappings MappingReader) *MarketUsecase {
	return &MarketUsecase{
		symbols:  append([]string(nil), symbols...),
		state:    state,
		candles:  candles,
		mappings: mappings,
	}
}

// CanonicalSymbol はクエリ文字列を正規化します。既知シンボルであれば
// (シンボル, true)、未知であれば (プライマリ, false) を返します。
func (u *MarketUsecase) CanonicalSymbol(symbol string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(symbol))
	for _, s := range u.symbols {
		if s == upper {
			return s, true
		}
	}
	return u.symbols[0], false
}

// Symbols は構成済みシンボルの一覧を返します。
func (u *MarketUsecase) Symbols() []string {
	return append([]string(nil), u.symbols...)
}

// GetLive は最新スナップショットとフィード状態を返します。未観測の
// フィールドは他シンボルの値で補完します（シンクライアント向けの
// 意図的なクロスシンボルフォールバック。エラーではありません）。
func (u *MarketUsecase) GetLive(ctx context.Context, symbol string) (entity.LiveQuote, entity.FeedHealth, error) {
	health, err := u.state.Health(ctx)
	if err != nil {
		return entity.LiveQuote{}, entity.FeedHealth{}, err
	}
	quote, err := u.state.Live(ctx, symbol)
	if err != nil {
		return entity.LiveQuote{}, entity.FeedHealth{}, err
	}
	other, err := u.state.Live(ctx, u.fallbackFor(symbol))
	if err != nil {
		return entity.LiveQuote{}, entity.FeedHealth{}, err
	}

	if quote.Price == 0 {
		quote.Price = other.Price
	}
	if quote.Bid == 0 {
		quote.Bid = other.Bid
	}
	if quote.Ask == 0 {
		quote.Ask = other.Ask
	}
	if quote.Timestamp == 0 {
		quote.Timestamp = other.Timestamp
	}
	if quote.LastUpdate == "" {
		quote.LastUpdate = other.LastUpdate
	}
	return quote, health, nil
}

// GetLiveAll は全シンボルの生スナップショットを返します。
// シンボル未指定時の後方互換ペイロード用で、フォールバックは行いません。
func (u *MarketUsecase) GetLiveAll(ctx context.Context) (map[string]entity.LiveQuote, entity.FeedHealth, error) {
	health, err := u.state.Health(ctx)
	if err != nil {
		return nil, entity.FeedHealth{}, err
	}
	out := make(map[string]entity.LiveQuote, len(u.symbols))
	for _, sym := range u.symbols {
		quote, err := u.state.Live(ctx, sym)
		if err != nil {
			return nil, entity.FeedHealth{}, err
		}
		out[sym] = quote
	}
	return out, health, nil
}

// GetCandles はキャンドル履歴（進行中を含む、古い順）を返します。
// limitは[1, リング容量]に丸められ、履歴が空の場合は他シンボルの
// 履歴にフォールバックします。
func (u *MarketUsecase) GetCandles(ctx context.Context, symbol string, limit int) ([]entity.Candle, error) {
	if limit <= 0 || limit > MaxCandleLimit {
		limit = DefaultCandleLimit
	}

	cs, err := u.candles.Candles(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		if cs, err = u.candles.Candles(ctx, u.fallbackFor(symbol)); err != nil {
			return nil, err
		}
	}
	return tail(cs, limit), nil
}

// GetTicks は生ティック（古い順）を返します。クランプとフォールバックの
// 方針はGetCandlesと同じです。
func (u *MarketUsecase) GetTicks(ctx context.Context, symbol string, limit int) ([]entity.Tick, error) {
	if limit <= 0 {
		limit = DefaultTickLimit
	}
	if limit > MaxTickLimit {
		limit = MaxTickLimit
	}

	ts, err := u.state.Ticks(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(ts) == 0 {
		if ts, err = u.state.Ticks(ctx, u.fallbackFor(symbol)); err != nil {
			return nil, err
		}
	}
	return tail(ts, limit), nil
}

// GetHealth はフィード状態・シンボル別カウンタ・学習済みマッピングを
// まとめたレポートを返します。
func (u *MarketUsecase) GetHealth(ctx context.Context) (entity.HealthReport, error) {
	health, err := u.state.Health(ctx)
	if err != nil {
		return entity.HealthReport{}, err
	}

	report := entity.HealthReport{
		Feed:        health,
		Symbols:     make(map[string]entity.SymbolHealth, len(u.symbols)),
		Instruments: u.mappings.Mappings(),
	}
	for _, sym := range u.symbols {
		quote, err := u.state.Live(ctx, sym)
		if err != nil {
			return entity.HealthReport{}, err
		}
		counts, err := u.state.Counts(ctx, sym)
		if err != nil {
			return entity.HealthReport{}, err
		}
		report.Symbols[sym] = entity.SymbolHealth{
			Price:      quote.Price,
			LastUpdate: quote.LastUpdate,
			Candles:    counts.Candles,
			Ticks:      counts.Ticks,
		}
	}
	return report, nil
}

// fallbackFor は指定シンボル以外で最初に構成されたシンボルを返します。
func (u *MarketUsecase) fallbackFor(symbol string) string {
	for _, s := range u.symbols {
		if s != symbol {
			return s
		}
	}
	return symbol
}

// tail はスライス末尾の最大n件を返します。
func tail[T any](s []T, n int) []T {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
