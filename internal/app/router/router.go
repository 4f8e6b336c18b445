package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	markethandler "futures_backend/internal/feature/market/transport/handler"
	"futures_backend/internal/platform/http/handler"
)

// NewRouter は市況データAPIのルータを構築します。認証は不要で、
// ブラウザのチャートクライアント向けにCORSを許可します。
func NewRouter(market *markethandler.MarketHandler) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())

	// 導通確認用
	r.GET("/healthz", handler.Health)

	// サービスバナー（カウンタ付き）
	r.GET("/", market.Root)

	api := r.Group("/api/market")
	{
		api.GET("/live", market.GetLive)
		api.GET("/candles", market.GetCandles)
		api.GET("/ticks", market.GetTicks)
		api.GET("/health", market.GetHealth)
	}

	return r
}
