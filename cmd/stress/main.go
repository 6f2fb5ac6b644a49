package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/STRBRYKEIYK/workbox/internal/adapter/storage"
	"github.com/STRBRYKEIYK/workbox/internal/core/broadcast"
	"github.com/STRBRYKEIYK/workbox/internal/core/domain"
	"github.com/STRBRYKEIYK/workbox/internal/core/service"
)

const (
	initialStock  = 20
	totalRequests = 50
)

func main() {
	ctx := context.Background()
	logger := zap.NewNop()

	store := storage.NewMemoryStore()
	item := &domain.InventoryItem{
		Name:          "hot-item",
		Price:         decimal.RequireFromString("9.99"),
		StockQuantity: initialStock,
	}
	if err := store.CreateItem(ctx, item); err != nil {
		log.Fatalf("failed to seed item: %v", err)
	}

	registry := broadcast.NewRegistry(totalRequests*4, nil)
	hub := broadcast.NewHub(registry, broadcast.HubOptions{}, logger, nil)
	hub.Start(ctx)

	// One subscriber counting everything it receives.
	conn := registry.Register()
	var received atomic.Int32
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			select {
			case <-conn.Outbox():
				received.Add(1)
			case <-conn.Done():
				return
			}
		}
	}()

	engine := service.NewEngine(store, logger)
	orders := service.NewOrderService(engine, hub, logger)

	var successCount, failCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := orders.SubmitOrder(ctx, userID, []service.LineRequest{
				{InventoryID: item.ID, Quantity: 1},
			})
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(int64(i + 1))
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Let the hub drain, then detach the subscriber.
	time.Sleep(200 * time.Millisecond)
	registry.Unregister(conn)
	<-drained
	hub.Stop(ctx)

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Events Received:  %d\n", received.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == initialStock && fail == totalRequests-initialStock {
		fmt.Printf("PASS: Exactly %d orders succeeded, %d failed\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d fail, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, fail)
	}

	final, err := store.GetItem(ctx, item.ID)
	if err != nil {
		log.Fatalf("failed to read final stock: %v", err)
	}
	fmt.Printf("Final Stock: %d\n", final.StockQuantity)
	if final.StockQuantity == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", final.StockQuantity)
	}

	// Every success broadcasts one order_placed and one inventory_update.
	want := success * 2
	if received.Load() == want {
		fmt.Printf("PASS: Subscriber received all %d events\n", want)
	} else {
		fmt.Printf("FAIL: Expected %d events, got %d\n", want, received.Load())
	}
}
