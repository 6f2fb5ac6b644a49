package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/STRBRYKEIYK/workbox/internal/adapter/handler"
	"github.com/STRBRYKEIYK/workbox/internal/adapter/storage"
	"github.com/STRBRYKEIYK/workbox/internal/config"
	"github.com/STRBRYKEIYK/workbox/internal/core/broadcast"
	"github.com/STRBRYKEIYK/workbox/internal/core/domain"
	"github.com/STRBRYKEIYK/workbox/internal/core/service"
	"github.com/STRBRYKEIYK/workbox/internal/pkg/logging"
	"github.com/STRBRYKEIYK/workbox/internal/port"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	log := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = log.Sync() }()

	// Store: MySQL when a DSN is configured, in-memory otherwise.
	var store port.InventoryStore
	var db *sql.DB
	if cfg.MySQLDSN != "" {
		var err error
		db, err = sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal("mysql_open_failed", zap.Error(err))
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			log.Fatal("mysql_ping_failed", zap.Error(err))
		}

		mysqlStore := storage.NewMySQLStore(db)
		if err := mysqlStore.Migrate(ctx); err != nil {
			log.Fatal("mysql_migrate_failed", zap.Error(err))
		}
		store = mysqlStore
		log.Info("store_ready", zap.String("kind", "mysql"))
	} else {
		store = storage.NewMemoryStore()
		log.Info("store_ready", zap.String("kind", "memory"))
	}

	if cfg.SeedOnStart {
		if err := seedSampleData(ctx, store); err != nil {
			log.Fatal("seed_failed", zap.Error(err))
		}
	}

	// Optional Redis-backed duplicate-request guard.
	var guard port.IdempotencyGuard
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("redis_ping_failed", zap.Error(err))
		}
		guard = storage.NewRedisGuard(rdb)
		log.Info("idempotency_guard_ready", zap.String("addr", cfg.RedisAddr))
	}

	// Broadcast hub.
	metrics := broadcast.NewMetrics()
	metrics.Register(prometheus.DefaultRegisterer)
	registry := broadcast.NewRegistry(cfg.ConnBuffer, metrics.Connections)
	hub := broadcast.NewHub(registry, broadcast.HubOptions{
		QueueSize:   cfg.HubQueueSize,
		SendTimeout: cfg.SendTimeout,
	}, log, metrics)
	hub.Start(ctx)

	ordersTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workbox_orders_total",
		Help: "Order submissions by outcome.",
	}, []string{"outcome"})
	prometheus.MustRegister(ordersTotal)

	engine := service.NewEngine(store, log)
	orders := service.NewOrderService(engine, hub, log)

	httpHandler := handler.NewHTTPHandler(orders, store, hub, guard, log, ordersTotal)
	wsHandler := handler.NewWSHandler(registry, log)

	mux := http.NewServeMux()
	httpHandler.Register(mux)
	mux.HandleFunc("/ws", wsHandler.Serve)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		log.Info("http_server_start", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http_server_shutdown_error", zap.Error(err))
	}

	hub.Stop(shutdownCtx)

	if rdb != nil {
		rdb.Close()
	}
	if db != nil {
		db.Close()
	}
	log.Info("stopped")
}

// seedSampleData loads the demo catalog when the store is empty.
func seedSampleData(ctx context.Context, store port.InventoryStore) error {
	existing, err := store.ListItems(ctx, 0, 1)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	samples := []domain.InventoryItem{
		{Name: "Laptop", Description: "High-performance laptop", Price: decimal.RequireFromString("999.99"), StockQuantity: 50},
		{Name: "Mouse", Description: "Wireless optical mouse", Price: decimal.RequireFromString("29.99"), StockQuantity: 200},
		{Name: "Keyboard", Description: "Mechanical gaming keyboard", Price: decimal.RequireFromString("79.99"), StockQuantity: 100},
		{Name: "Monitor", Description: "27-inch 4K monitor", Price: decimal.RequireFromString("399.99"), StockQuantity: 30},
		{Name: "Headphones", Description: "Noise-cancelling headphones", Price: decimal.RequireFromString("149.99"), StockQuantity: 75},
	}
	for i := range samples {
		if err := store.CreateItem(ctx, &samples[i]); err != nil {
			return err
		}
	}
	return nil
}
