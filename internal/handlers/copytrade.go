package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/nandigama/InvestSimulate2/internal/models"
)

type copySettingsBody struct {
	UserID              int64           `json:"user_id" binding:"required"`
	FollowedTraderID    int64           `json:"followed_trader_id" binding:"required"`
	Enabled             bool            `json:"enabled"`
	CopyAmountCash      decimal.Decimal `json:"copy_amount_cash" binding:"required"`
	MaxPositionSizeCash decimal.Decimal `json:"max_position_size_cash" binding:"required"`
	RiskLevel           string          `json:"risk_level" binding:"omitempty,oneof=low medium high"`
}

// CreateCopySettings handles POST /api/copy-trading/settings.
func (a *API) CreateCopySettings(c *gin.Context) {
	var body copySettingsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !body.CopyAmountCash.IsPositive() || !body.MaxPositionSizeCash.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "copy amounts must be positive"})
		return
	}
	if body.RiskLevel == "" {
		body.RiskLevel = "medium"
	}

	ctx := c.Request.Context()
	if _, err := a.store.Account(ctx, body.UserID); err != nil {
		a.fail(c, err)
		return
	}
	if _, err := a.store.Account(ctx, body.FollowedTraderID); err != nil {
		a.fail(c, err)
		return
	}

	setting, err := a.store.CreateCopySetting(ctx, models.CopySetting{
		FollowerAccountID:   body.UserID,
		FollowedTraderID:    body.FollowedTraderID,
		Enabled:             body.Enabled,
		CopyAmountCash:      body.CopyAmountCash,
		MaxPositionSizeCash: body.MaxPositionSizeCash,
		RiskLevel:           body.RiskLevel,
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

// UpdateCopySettings handles PUT /api/copy-trading/settings/:id.
func (a *API) UpdateCopySettings(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid setting id"})
		return
	}

	var body copySettingsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !body.CopyAmountCash.IsPositive() || !body.MaxPositionSizeCash.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "copy amounts must be positive"})
		return
	}
	if body.RiskLevel == "" {
		body.RiskLevel = "medium"
	}

	setting, err := a.store.UpdateCopySetting(c.Request.Context(), models.CopySetting{
		ID:                  id,
		FollowedTraderID:    body.FollowedTraderID,
		Enabled:             body.Enabled,
		CopyAmountCash:      body.CopyAmountCash,
		MaxPositionSizeCash: body.MaxPositionSizeCash,
		RiskLevel:           body.RiskLevel,
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

// GetCopySettings handles GET /api/copy-trading/settings/:userId.
func (a *API) GetCopySettings(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	settings, err := a.store.CopySettings(c.Request.Context(), userID)
	if err != nil {
		a.fail(c, err)
		return
	}
	if settings == nil {
		settings = []models.CopySetting{}
	}
	c.JSON(http.StatusOK, settings)
}

// GetCopiedTrades handles GET /api/copy-trading/trades/:userId. The
// follower sees fanout outcomes here, never synchronously.
func (a *API) GetCopiedTrades(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	trades, err := a.store.CopiedTrades(c.Request.Context(), userID)
	if err != nil {
		a.fail(c, err)
		return
	}
	if trades == nil {
		trades = []models.CopiedTrade{}
	}
	c.JSON(http.StatusOK, trades)
}
