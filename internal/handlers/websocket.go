package handlers

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// PriceUpdate is one streamed quote.
type PriceUpdate struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins for the demo frontend
	},
}

// watchlist streamed by default when the client does not ask for a symbol.
var watchlist = []string{"AAPL", "GOOGL", "MSFT", "TSLA", "AMZN"}

// StreamPrices handles GET /ws/prices: one oracle quote per second,
// rotating through the watchlist or pinned to ?symbol=.
func (a *API) StreamPrices(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.logger.Println("websocket upgrade error:", err)
		return
	}
	defer conn.Close()

	symbols := watchlist
	if s := c.Query("symbol"); s != "" {
		symbols = []string{s}
	}

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			symbol := symbols[rand.Intn(len(symbols))]

			price, err := a.oracle.Quote(ctx, symbol)
			if err != nil {
				a.logger.Printf("price stream quote for %s failed: %v", symbol, err)
				continue
			}

			update := PriceUpdate{
				Symbol:    symbol,
				Price:     price,
				Timestamp: time.Now().UTC(),
			}
			if err := conn.WriteJSON(update); err != nil {
				return
			}
		}
	}
}
