package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/nandigama/InvestSimulate2/internal/models"
)

type createUserBody struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
}

// CreateUser handles POST /api/users. New accounts start with the
// standard virtual balance.
func (a *API) CreateUser(c *gin.Context) {
	var body createUserBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := a.store.CreateAccount(c.Request.Context(), body.Username, models.StartingBalance)
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, account)
}

type traderProfileBody struct {
	UserID          int64           `json:"user_id" binding:"required"`
	IsTrader        bool            `json:"is_trader"`
	SubscriptionFee decimal.Decimal `json:"subscription_fee"`
	Bio             string          `json:"bio" binding:"max=500"`
}

// UpdateTraderProfile handles POST /api/trader/profile.
func (a *API) UpdateTraderProfile(c *gin.Context) {
	var body traderProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if body.SubscriptionFee.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subscription fee cannot be negative"})
		return
	}

	account, err := a.store.UpdateTraderProfile(c.Request.Context(), body.UserID, body.IsTrader, body.SubscriptionFee, body.Bio)
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// GetTraders handles GET /api/traders.
func (a *API) GetTraders(c *gin.Context) {
	traders, err := a.store.Traders(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	if traders == nil {
		traders = []models.Account{}
	}
	c.JSON(http.StatusOK, traders)
}

// LeaderboardEntry is one row of the leaderboard.
type LeaderboardEntry struct {
	Username   string          `json:"username"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// GetLeaderboard handles GET /api/leaderboard; accounts ranked by cash
// plus holdings at current oracle quotes.
func (a *API) GetLeaderboard(c *gin.Context) {
	accounts, err := a.store.Accounts(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}

	entries := make([]LeaderboardEntry, 0, len(accounts))
	for _, account := range accounts {
		value, err := a.engine.PortfolioValue(c.Request.Context(), account)
		if err != nil {
			a.fail(c, err)
			return
		}
		entries = append(entries, LeaderboardEntry{Username: account.Username, TotalValue: value})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TotalValue.GreaterThan(entries[j].TotalValue)
	})

	c.JSON(http.StatusOK, entries)
}
