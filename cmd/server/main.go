package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	redisv9 "github.com/redis/go-redis/v9"

	"futures_backend/internal/app/di"
	"futures_backend/internal/app/router"
	feedusecase "futures_backend/internal/feature/feed/usecase"
	"futures_backend/internal/feature/market/store"
	markethandler "futures_backend/internal/feature/market/transport/handler"
	marketusecase "futures_backend/internal/feature/market/usecase"
	"futures_backend/internal/platform/cache"
	infraredis "futures_backend/internal/platform/redis"
	"futures_backend/internal/shared/backoff"
)

// symbols は扱う論理シンボルの集合です。先頭がプライマリ（フォールバック先）。
var symbols = []string{"NQ", "MNQ"}

func main() {
	// 共有状態。フィードワーカーとHTTPハンドラーの両方が参照する
	st := store.New(symbols)
	resolver := feedusecase.NewSymbolResolver(symbols)
	filter := feedusecase.NewRecordFilter()

	// フィードワーカー（プロセスの生存期間ずっと走り続ける）
	dialer, sub := di.NewFeedGateway()
	supervisor := feedusecase.NewSupervisor(
		dialer, resolver, filter, st, sub,
		backoff.NewFixed(backoff.DefaultInterval), slog.Default())
	go supervisor.Run(context.Background())

	// Redis（任意。無くてもキャッシュなしで動作する）
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(); err != nil {
		log.Println("[WARN] Redis unavailable. Running without cache.")
		rdb = nil
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	// Redisキャッシュでラップ
	candleReader := cache.NewCachingCandleReader(rdb, 0, st, "candles")

	// Usecase / Handler
	marketUC := marketusecase.NewMarketUsecase(symbols, st, candleReader, resolver)
	marketH := markethandler.NewMarketHandler(marketUC)

	// ルータ生成
	r := router.NewRouter(marketH)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
