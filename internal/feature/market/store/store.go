// Package store は市況データのインメモリ状態を保持します。
// 書き込みはフィードワーカーの単一ゴルーチンのみ、読み取りは
// 複数のHTTPハンドラーから並行に行われます。
package store

import (
	"context"
	"math"
	"sync"
	"time"

	feedusecase "futures_backend/internal/feature/feed/usecase"
	"futures_backend/internal/feature/market/domain/entity"
	"futures_backend/internal/feature/market/usecase"
)

// MarketStoreが各インターフェースを実装していることをコンパイル時に検証します。
var (
	_ usecase.StateReader     = (*MarketStore)(nil)
	_ usecase.CandleReader    = (*MarketStore)(nil)
	_ feedusecase.StateWriter = (*MarketStore)(nil)
)

const (
	// CandleHistorySize は確定済み1分足の保持本数です（24時間分）。
	CandleHistorySize = 1440
	// TickBufferSize は生ティックの保持件数です。
	TickBufferSize = 10000
	// candleSpikeRange は進行中キャンドルの中値からの許容乖離です。
	// これを超える価格は単発の異常ティックとみなしキャンドルに反映しません。
	candleSpikeRange = 30.0
)

// symbolState は1シンボル分の共有状態です。論理単位（キャンドル、
// ティック、最新値）ごとに独立したロックスコープを持ちます。
type symbolState struct {
	liveMu sync.RWMutex
	live   entity.LiveQuote

	candleMu sync.Mutex
	current  *entity.Candle
	history  *ring[entity.Candle]

	tickMu sync.Mutex
	ticks  *ring[entity.Tick]
}

// MarketStore はフィードから受け取った観測値を集約し、
// スナップショットとして読み出せるインメモリストアです。
type MarketStore struct {
	symbols []string
	states  map[string]*symbolState

	healthMu sync.RWMutex
	health   entity.FeedHealth
}

// New は指定された論理シンボル集合のMarketStoreを生成します。
// シンボル集合は起動時に固定され、以後変化しません。
func New(symbols []string) *MarketStore {
	states := make(map[string]*symbolState, len(symbols))
	for _, sym := range symbols {
		states[sym] = &symbolState{
			history: newRing[entity.Candle](CandleHistorySize),
			ticks:   newRing[entity.Tick](TickBufferSize),
		}
	}
	return &MarketStore{symbols: append([]string(nil), symbols...), states: states}
}

// Apply は受理済みの観測値を最新値・キャンドル・ティックの順で反映します。
// フィードワーカーのみが呼び出します。
func (s *MarketStore) Apply(obs entity.Observation) {
	st, ok := s.states[obs.Symbol]
	if !ok {
		return
	}
	s.applyLive(st, obs)
	s.applyCandle(st, obs)
	s.applyTick(st, obs)
}

func (s *MarketStore) applyLive(st *symbolState, obs entity.Observation) {
	st.liveMu.Lock()
	defer st.liveMu.Unlock()

	st.live.Price = obs.Price
	if obs.Bid > 0 && obs.Ask > 0 {
		st.live.Bid = obs.Bid
		st.live.Ask = obs.Ask
	}
	st.live.Volume = obs.Size
	st.live.Timestamp = obs.EventTime.UnixMilli()
	st.live.LastUpdate = obs.EventTime.UTC().Format("2006-01-02 15:04:05 UTC")
}

func (s *MarketStore) applyCandle(st *symbolState, obs entity.Observation) {
	bucket := bucketStart(obs.EventTime)

	st.candleMu.Lock()
	defer st.candleMu.Unlock()

	cc := st.current
	if cc != nil && cc.Time == bucket {
		// 進行中キャンドル内のスパイクガード
		mid := (cc.High + cc.Low) / 2
		if math.Abs(obs.Price-mid) > candleSpikeRange {
			return
		}
	}

	if cc == nil || cc.Time != bucket {
		// バケット切り替え: 旧キャンドルを履歴へ確定
		if cc != nil {
			st.history.append(*cc)
		}
		st.current = &entity.Candle{
			Time:      bucket,
			Open:      obs.Price,
			High:      obs.Price,
			Low:       obs.Price,
			Close:     obs.Price,
			Volume:    obs.Size,
			TickCount: 1,
		}
		return
	}

	cc.High = math.Max(cc.High, obs.Price)
	cc.Low = math.Min(cc.Low, obs.Price)
	cc.Close = obs.Price
	cc.Volume += obs.Size
	cc.TickCount++
}

// applyTick はキャンドル側のガード結果とは独立に必ず追記します。
func (s *MarketStore) applyTick(st *symbolState, obs entity.Observation) {
	st.tickMu.Lock()
	defer st.tickMu.Unlock()
	st.ticks.append(entity.Tick{
		Time:   obs.EventTime.Unix(),
		Price:  obs.Price,
		Volume: obs.Size,
	})
}

// SetConnected はフィードの接続状態を更新します。接続成功時は
// 直前のエラーをクリアします。
func (s *MarketStore) SetConnected(connected bool, err error) {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()
	s.health.Connected = connected
	if err != nil {
		s.health.LastError = err.Error()
	} else if connected {
		s.health.LastError = ""
	}
}

// Health は現在のフィード状態のコピーを返します。
func (s *MarketStore) Health(ctx context.Context) (entity.FeedHealth, error) {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()
	return s.health, nil
}

// Live は指定シンボルの最新スナップショットのコピーを返します。
func (s *MarketStore) Live(ctx context.Context, symbol string) (entity.LiveQuote, error) {
	st, ok := s.states[symbol]
	if !ok {
		return entity.LiveQuote{}, nil
	}
	st.liveMu.RLock()
	defer st.liveMu.RUnlock()
	return st.live, nil
}

// Candles は確定済み履歴に進行中キャンドルを加えたスナップショットを
// 古い順で返します。返却後に内部状態が変化しても影響しません。
func (s *MarketStore) Candles(ctx context.Context, symbol string) ([]entity.Candle, error) {
	st, ok := s.states[symbol]
	if !ok {
		return nil, nil
	}
	st.candleMu.Lock()
	defer st.candleMu.Unlock()
	out := st.history.snapshot()
	if st.current != nil {
		out = append(out, *st.current)
	}
	return out, nil
}

// Ticks は保持中の生ティックを古い順で返します。
func (s *MarketStore) Ticks(ctx context.Context, symbol string) ([]entity.Tick, error) {
	st, ok := s.states[symbol]
	if !ok {
		return nil, nil
	}
	st.tickMu.Lock()
	defer st.tickMu.Unlock()
	return st.ticks.snapshot(), nil
}

// Counts はヘルス表示用のキャンドル・ティック件数を返します。
// 進行中キャンドルは件数に含めません。
func (s *MarketStore) Counts(ctx context.Context, symbol string) (entity.Counts, error) {
	st, ok := s.states[symbol]
	if !ok {
		return entity.Counts{}, nil
	}
	st.candleMu.Lock()
	candles := st.history.len()
	st.candleMu.Unlock()
	st.tickMu.Lock()
	ticks := st.ticks.len()
	st.tickMu.Unlock()
	return entity.Counts{Candles: candles, Ticks: ticks}, nil
}

// Symbols は構成済みシンボルの一覧を返します。
func (s *MarketStore) Symbols() []string {
	return append([]string(nil), s.symbols...)
}

// bucketStart は観測時刻を60秒境界に切り捨てます。
func bucketStart(t time.Time) int64 {
	return t.Unix() / 60 * 60
}
