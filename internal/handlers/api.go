// Package handlers exposes the trading, social and copy-trading
// operations over HTTP and owns the trade worker pool.
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nandigama/InvestSimulate2/internal/engine"
	"github.com/nandigama/InvestSimulate2/internal/models"
	"github.com/nandigama/InvestSimulate2/internal/oracle"
	"github.com/nandigama/InvestSimulate2/internal/store"
)

// API bundles the handler dependencies.
type API struct {
	store     store.Store
	processor *TradeProcessor
	engine    *engine.Engine
	oracle    oracle.Oracle
	logger    *log.Logger
}

// NewAPI creates the handler set.
func NewAPI(st store.Store, tp *TradeProcessor, eng *engine.Engine, ora oracle.Oracle, logger *log.Logger) *API {
	return &API{store: st, processor: tp, engine: eng, oracle: ora, logger: logger}
}

// RegisterRoutes attaches all endpoints to the router.
func (a *API) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/users", a.CreateUser)
		api.GET("/portfolio/:userId", a.GetPortfolio)
		api.POST("/trade", a.ExecuteTrade)
		api.GET("/transactions/:userId", a.GetTransactions)
		api.GET("/leaderboard", a.GetLeaderboard)

		api.POST("/trader/profile", a.UpdateTraderProfile)
		api.GET("/traders", a.GetTraders)

		api.POST("/subscribe", a.Subscribe)
		api.POST("/subscriptions/:id/cancel", a.CancelSubscription)
		api.GET("/subscriptions/:userId", a.GetSubscriptions)

		api.POST("/traders/:id/follow", a.FollowTrader)
		api.DELETE("/traders/:id/follow", a.UnfollowTrader)
		api.GET("/traders/:id/followers", a.GetFollowers)

		api.POST("/copy-trading/settings", a.CreateCopySettings)
		api.PUT("/copy-trading/settings/:id", a.UpdateCopySettings)
		api.GET("/copy-trading/settings/:userId", a.GetCopySettings)
		api.GET("/copy-trading/trades/:userId", a.GetCopiedTrades)
	}

	router.GET("/ws/prices", a.StreamPrices)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
}

// fail writes the error with a status derived from the taxonomy.
func (a *API) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrAccountNotFound),
		errors.Is(err, models.ErrSettingNotFound),
		errors.Is(err, models.ErrSubscriptionGone):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrInsufficientShares),
		errors.Is(err, models.ErrInvalidTrade),
		errors.Is(err, models.ErrUsernameTaken),
		errors.Is(err, models.ErrNotATrader):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		a.logger.Printf("request failed: %v", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
