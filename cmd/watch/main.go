package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
)

type inventoryUpdate struct {
	Type          string  `json:"type"`
	InventoryID   int64   `json:"inventory_id"`
	Name          string  `json:"name"`
	StockQuantity int     `json:"stock_quantity"`
	Price         float64 `json:"price"`
}

type orderPlaced struct {
	Type        string  `json:"type"`
	OrderID     int64   `json:"order_id"`
	UserID      int64   `json:"user_id"`
	TotalAmount float64 `json:"total_amount"`
	Items       []struct {
		InventoryID int64   `json:"inventory_id"`
		Name        string  `json:"name"`
		Quantity    int     `json:"quantity"`
		UnitPrice   float64 `json:"unit_price"`
	} `json:"items"`
}

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "WebSocket endpoint")
	flag.Parse()

	ws, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", *url, err)
	}
	defer ws.Close()
	log.Printf("connected to %s, listening for updates...", *url)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, payload, err := ws.ReadMessage()
			if err != nil {
				log.Printf("connection closed: %v", err)
				return
			}
			printEvent(payload)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	select {
	case <-quit:
		log.Println("stopping...")
		ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	case <-done:
	}
}

func printEvent(payload []byte) {
	var kind struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &kind); err != nil {
		log.Printf("unreadable message: %v", err)
		return
	}

	switch kind.Type {
	case "inventory_update":
		var ev inventoryUpdate
		if err := json.Unmarshal(payload, &ev); err != nil {
			log.Printf("bad inventory_update: %v", err)
			return
		}
		log.Printf("inventory update: %s (id %d) stock=%d price=$%.2f",
			ev.Name, ev.InventoryID, ev.StockQuantity, ev.Price)

	case "order_placed":
		var ev orderPlaced
		if err := json.Unmarshal(payload, &ev); err != nil {
			log.Printf("bad order_placed: %v", err)
			return
		}
		log.Printf("order placed: order %d by user %d, total $%.2f",
			ev.OrderID, ev.UserID, ev.TotalAmount)
		for _, item := range ev.Items {
			log.Printf("  - %s x%d @ $%.2f", item.Name, item.Quantity, item.UnitPrice)
		}

	default:
		log.Printf("unknown message: %s", payload)
	}
}
