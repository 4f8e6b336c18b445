package usecase

import (
	"math"

	feedentity "futures_backend/internal/feature/feed/domain/entity"
	marketentity "futures_backend/internal/feature/market/domain/entity"
)

const (
	// priceFloor を下回る価格はスケール誤りか先物以外の値とみなします。
	priceFloor = 1000.0
	// maxSpread 以上の気配スプレッドはクロス・破損した板とみなし、
	// 気配ペア全体を破棄します。
	maxSpread = 10.0
	// spikeThreshold は直前の受理価格からの最大許容変化幅です。
	// この値ちょうどの変化は正常な急変として通します。
	spikeThreshold = 50.0
)

// RecordFilter は生レコードから観測値を抽出し、妥当性を検証します。
// 抽出失敗は高頻度で起こる正常系であり、エラーではなく「観測値なし」
// として扱います。直前の受理価格はフィードワーカーのみが更新します。
type RecordFilter struct {
	last map[string]float64 // シンボルごとの直前受理価格
}

// NewRecordFilter は新しいRecordFilterを生成します。
func NewRecordFilter() *RecordFilter {
	return &RecordFilter{last: make(map[string]float64)}
}

// Extract はレコードから価格・気配・サイズを取り出します。
// 2番目の戻り値がfalseの場合、観測値は生成されず状態は変化しません。
// EventTimeは設定しません（呼び出し側が処理時刻を刻印します）。
func (f *RecordFilter) Extract(symbol string, rec feedentity.Record) (marketentity.Observation, bool) {
	var price float64

	// トレード価格が正本。妥当性フロアを超えるもののみ採用。
	if rec.TradePrice != nil {
		if p := scale(*rec.TradePrice); p > priceFloor {
			price = round2(p)
		}
	}

	var bid, ask float64
	if rec.BidPrice != nil && rec.AskPrice != nil {
		b := scale(*rec.BidPrice)
		a := scale(*rec.AskPrice)
		if b > priceFloor && a > priceFloor && a-b < maxSpread {
			bid = round2(b)
			ask = round2(a)
			if price == 0 {
				// トレード価格が無い場合は受理済み気配の中値を採用
				price = round2((b + a) / 2)
			}
		}
	}

	if price == 0 {
		return marketentity.Observation{}, false
	}

	// クロスティックのスパイクガード
	if prev, ok := f.last[symbol]; ok && math.Abs(price-prev) > spikeThreshold {
		return marketentity.Observation{}, false
	}
	f.last[symbol] = price

	size := int64(1)
	if rec.Size != nil && *rec.Size > 0 {
		size = int64(*rec.Size)
	}

	return marketentity.Observation{
		Symbol: symbol,
		Price:  price,
		Bid:    bid,
		Ask:    ask,
		Size:   size,
	}, true
}

func scale(raw int64) float64 {
	return float64(raw) / feedentity.PriceScale
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
