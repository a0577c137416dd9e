package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/nandigama/InvestSimulate2/internal/models"
)

type tradeBody struct {
	UserID int64           `json:"user_id" binding:"required"`
	Symbol string          `json:"symbol" binding:"required"`
	Shares decimal.Decimal `json:"shares" binding:"required"`
	Side   models.Side     `json:"side" binding:"required,oneof=buy sell"`
}

// ExecuteTrade handles POST /api/trade.
func (a *API) ExecuteTrade(c *gin.Context) {
	var body tradeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := a.processor.SubmitTrade(c.Request.Context(), body.UserID, models.TradeRequest{
		Symbol: body.Symbol,
		Shares: body.Shares,
		Side:   body.Side,
	})
	if result.Err != nil {
		a.fail(c, result.Err)
		return
	}

	c.JSON(http.StatusOK, result.Transaction)
}

// PortfolioResponse is what the portfolio endpoint returns.
type PortfolioResponse struct {
	Positions   []models.Position `json:"positions"`
	CashBalance decimal.Decimal   `json:"cash_balance"`
	TotalValue  decimal.Decimal   `json:"total_value"`
}

// GetPortfolio handles GET /api/portfolio/:userId.
func (a *API) GetPortfolio(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	account, err := a.store.Account(c.Request.Context(), userID)
	if err != nil {
		a.fail(c, err)
		return
	}

	positions, err := a.store.Positions(c.Request.Context(), userID)
	if err != nil {
		a.fail(c, err)
		return
	}

	// Holdings are valued at average purchase price here; the
	// leaderboard uses live quotes.
	total := account.CashBalance
	for _, p := range positions {
		total = total.Add(p.Shares.Mul(p.AveragePrice))
	}

	if positions == nil {
		positions = []models.Position{}
	}
	c.JSON(http.StatusOK, PortfolioResponse{
		Positions:   positions,
		CashBalance: account.CashBalance,
		TotalValue:  total,
	})
}

// GetTransactions handles GET /api/transactions/:userId.
func (a *API) GetTransactions(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	transactions, err := a.store.Transactions(c.Request.Context(), userID)
	if err != nil {
		a.fail(c, err)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

func pathID(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

func queryID(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Query(name), 10, 64)
}
