// Package handler はmarketフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"futures_backend/internal/feature/market/domain/entity"
	"futures_backend/internal/feature/market/transport/http/dto"
)

// sourceTag はレスポンスに付与するデータソース識別子です。
const sourceTag = "gateway-live"

// MarketUsecase は市況データ照会のユースケースインターフェースを定義します。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type MarketUsecase interface {
	CanonicalSymbol(symbol string) (string, bool)
	Symbols() []string
	GetLive(ctx context.Context, symbol string) (entity.LiveQuote, entity.FeedHealth, error)
	GetLiveAll(ctx context.Context) (map[string]entity.LiveQuote, entity.FeedHealth, error)
	GetCandles(ctx context.Context, symbol string, limit int) ([]entity.Candle, error)
	GetTicks(ctx context.Context, symbol string, limit int) ([]entity.Tick, error)
	GetHealth(ctx context.Context) (entity.HealthReport, error)
}

// MarketHandler は市況データのHTTPリクエストを処理します。
type MarketHandler struct {
	uc MarketUsecase
}

// NewMarketHandler は指定されたusecaseでMarketHandlerの新しいインスタンスを生成します。
func NewMarketHandler(uc MarketUsecase) *MarketHandler {
	return &MarketHandler{uc: uc}
}

// Root はサービスバナーと主要カウンタを返します。
//
// エンドポイント例:
// GET /
func (h *MarketHandler) Root(c *gin.Context) {
	report, err := h.uc.GetHealth(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	body := gin.H{
		"service":   "futures price server",
		"status":    "running",
		"connected": report.Feed.Connected,
		"iid_map":   instrumentMap(report.Instruments),
	}
	for sym, sh := range report.Symbols {
		key := strings.ToLower(sym)
		body[key+"_candles"] = sh.Candles
		body[key+"_ticks"] = sh.Ticks
	}
	c.JSON(http.StatusOK, body)
}

// GetLive は最新値を返すAPIです。symbolクエリが既知シンボルでない場合は
// 後方互換の複合ペイロード（プライマリシンボル扱い＋シンボル別フィールド）
// を返します。
//
// エンドポイント例:
// GET /api/market/live?symbol=NQ
func (h *MarketHandler) GetLive(c *gin.Context) {
	symbol, known := h.uc.CanonicalSymbol(c.Query("symbol"))
	if !known {
		h.liveCombined(c)
		return
	}

	quote, health, err := h.uc.GetLive(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.LiveResponse{
		Symbol:     symbol,
		Price:      fptr(quote.Price),
		Bid:        fptr(quote.Bid),
		Ask:        fptr(quote.Ask),
		Volume:     quote.Volume,
		Timestamp:  iptr(quote.Timestamp),
		Source:     sourceTag,
		Connected:  health.Connected,
		LastUpdate: sptr(quote.LastUpdate),
		Error:      sptr(health.LastError),
	})
}

// liveCombined は旧クライアント向けの複合ペイロードを返します。
// 既存クライアントはプライマリシンボルの形式を期待するため、
// フィールド単位で他シンボルの値にフォールバックします。
func (h *MarketHandler) liveCombined(c *gin.Context) {
	quotes, health, err := h.uc.GetLiveAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	symbols := h.uc.Symbols()
	primary := symbols[0]
	merged, _, err := h.uc.GetLive(c.Request.Context(), primary)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	body := gin.H{
		"symbol":      primary,
		"price":       fptr(merged.Price),
		"bid":         fptr(merged.Bid),
		"ask":         fptr(merged.Ask),
		"volume":      merged.Volume,
		"timestamp":   iptr(merged.Timestamp),
		"source":      sourceTag,
		"connected":   health.Connected,
		"last_update": sptr(merged.LastUpdate),
		"error":       sptr(health.LastError),
	}
	// シンボル別の生値も併せて返す
	for _, sym := range symbols {
		q := quotes[sym]
		key := strings.ToLower(sym)
		body[key+"_price"] = fptr(q.Price)
		body[key+"_bid"] = fptr(q.Bid)
		body[key+"_ask"] = fptr(q.Ask)
	}
	c.JSON(http.StatusOK, body)
}

// GetCandles は1分足履歴（進行中を含む）をJSONで返します。
//
// エンドポイント例:
// GET /api/market/candles?symbol=NQ&limit=1440
func (h *MarketHandler) GetCandles(c *gin.Context) {
	symbol, _ := h.uc.CanonicalSymbol(c.Query("symbol"))
	// 文字列を整数に変換。不正値は0となりusecase側でデフォルトに丸められる
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "1440"))

	candles, err := h.uc.GetCandles(c.Request.Context(), symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]dto.CandleItem, 0, len(candles))
	for _, x := range candles {
		out = append(out, dto.CandleItem{
			Time:      x.Time,
			Open:      x.Open,
			High:      x.High,
			Low:       x.Low,
			Close:     x.Close,
			Volume:    x.Volume,
			TickCount: x.TickCount,
		})
	}
	c.JSON(http.StatusOK, dto.CandlesResponse{
		Candles:  out,
		Count:    len(out),
		Interval: "1m",
		Symbol:   symbol,
	})
}

// GetTicks は生ティックをJSONで返します。
//
// エンドポイント例:
// GET /api/market/ticks?symbol=NQ&limit=5000
func (h *MarketHandler) GetTicks(c *gin.Context) {
	symbol, _ := h.uc.CanonicalSymbol(c.Query("symbol"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5000"))

	ticks, err := h.uc.GetTicks(c.Request.Context(), symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]dto.TickItem, 0, len(ticks))
	for _, x := range ticks {
		out = append(out, dto.TickItem{Time: x.Time, Price: x.Price, Volume: x.Volume})
	}
	c.JSON(http.StatusOK, dto.TicksResponse{Ticks: out, Count: len(out), Symbol: symbol})
}

// GetHealth はフィード状態・シンボル別カウンタ・学習済みマッピングを返します。
//
// エンドポイント例:
// GET /api/market/health
func (h *MarketHandler) GetHealth(c *gin.Context) {
	report, err := h.uc.GetHealth(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	symbols := make(map[string]dto.SymbolHealth, len(report.Symbols))
	for sym, sh := range report.Symbols {
		symbols[strings.ToLower(sym)] = dto.SymbolHealth{
			Price:      fptr(sh.Price),
			LastUpdate: sptr(sh.LastUpdate),
			Candles:    sh.Candles,
			Ticks:      sh.Ticks,
		}
	}
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:    "ok",
		Connected: report.Feed.Connected,
		Error:     sptr(report.Feed.LastError),
		Symbols:   symbols,
		IIDMap:    instrumentMap(report.Instruments),
	})
}

// instrumentMap はJSONキー用にinstrument_idを文字列化します。
func instrumentMap(m map[uint32]string) map[string]string {
	out := make(map[string]string, len(m))
	for id, sym := range m {
		out[strconv.FormatUint(uint64(id), 10)] = sym
	}
	return out
}

// fptr は未観測（ゼロ値）をnullとして表現するためのヘルパーです。
func fptr(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func iptr(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func sptr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
